// Package store persists the ERP collections as JSON documents under stable
// keys, plus the session records, behind one small capability set.
package store

import (
	"context"
	"errors"
	"time"
)

// Key names one collection. The values are the on-disk layout and must not change.
type Key string

const (
	Users          Key = "erp_users"
	Customers      Key = "erp_customers"
	Products       Key = "erp_products"
	Suppliers      Key = "erp_suppliers"
	SalesOrders    Key = "erp_sales_orders"
	PurchaseOrders Key = "erp_purchase_orders"
	Warehouses     Key = "erp_warehouses"
	StockMovements Key = "erp_stock_movements"
	AuditLog       Key = "erp_audit_log"
)

// Collections lists every key Initialize seeds.
var Collections = []Key{Users, Customers, Products, Suppliers, SalesOrders, PurchaseOrders, Warehouses, StockMovements, AuditLog}

var (
	ErrNotFound      = errors.New("store: not found")
	ErrUndeclaredKey = errors.New("store: key not declared for this update")
	ErrCorrupt       = errors.New("store: corrupt collection")
	ErrConflict      = errors.New("store: too many concurrent writers")
)

// Tx is the view of the store inside Update. Only declared keys are reachable.
type Tx interface {
	Get(key Key) ([]byte, error)
	Put(key Key, data []byte) error
}

// Store is implemented by the memory, gorm and redis backends.
//
// Update runs fn against the declared keys and commits every Put made by fn
// atomically, or nothing when fn returns an error. Backends with optimistic
// concurrency may call fn more than once, so fn must not have side effects
// outside the Tx.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, data []byte) error
	Update(ctx context.Context, keys []Key, fn func(tx Tx) error) error

	GetSession(ctx context.Context, id string) ([]byte, error)
	SetSession(ctx context.Context, id string, data []byte, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) error

	Close() error
}

func declared(keys []Key) map[Key]bool {
	m := make(map[Key]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
