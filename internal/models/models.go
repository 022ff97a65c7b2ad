package models

import (
	"fmt"
	"time"
)

// DateLayout is the on-disk date format of every record (orderDate, date, createdAt...).
const DateLayout = "2006-01-02"

// Role - a fixed category deciding which pages a session may open
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleSales       Role = "sales"
	RoleProcurement Role = "procurement"
	RoleWarehouse   Role = "warehouse"
	RoleFinance     Role = "finance"
)

// AllRoles lists the roles in menu order.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleSales, RoleProcurement, RoleWarehouse, RoleFinance}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales, RoleProcurement, RoleWarehouse, RoleFinance:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User - the person signing in. Password holds a bcrypt hash.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
}

// UserView is what the API returns for a user (never the hash).
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
}

func (u User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, Role: u.Role, Active: u.Active}
}

type Customer struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Country     string  `json:"country"`
	CreditLimit float64 `json:"creditLimit"`
	CreatedAt   string  `json:"createdAt"`
}

type Supplier struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Country      string `json:"country"`
	PaymentTerms string `json:"paymentTerms"`
	CreatedAt    string `json:"createdAt"`
}

// Product - the inventory item
type Product struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	CostPrice    float64 `json:"costPrice"`
	SalePrice    float64 `json:"salePrice"`
	CurrentStock int     `json:"currentStock"`
	ReorderLevel int     `json:"reorderLevel"`
}

// IsLowStock reports whether the product is at or below its reorder level.
func (p Product) IsLowStock() bool {
	return p.CurrentStock <= p.ReorderLevel
}

type Warehouse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// OrderItem - one line of a sales order, prices snapshotted at creation
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	CostPrice   float64 `json:"costPrice"`
	Total       float64 `json:"total"`
}

// SalesOrder - totals are computed once when the order is created
type SalesOrder struct {
	ID           string      `json:"id"`
	OrderNumber  string      `json:"orderNumber"`
	CustomerID   string      `json:"customerId"`
	CustomerName string      `json:"customerName"`
	OrderDate    string      `json:"orderDate"`
	DeliveryDate string      `json:"deliveryDate"`
	Status       SalesStatus `json:"status"`
	Items        []OrderItem `json:"items"`
	Subtotal     float64     `json:"subtotal"`
	Tax          float64     `json:"tax"`
	Total        float64     `json:"total"`
	Profit       float64     `json:"profit"`
	CreatedBy    string      `json:"createdBy"`
}

type PurchaseItem struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	CostPrice   *float64 `json:"costPrice,omitempty"`
	Total       float64  `json:"total"`
}

type PurchaseOrder struct {
	ID           string         `json:"id"`
	PONumber     string         `json:"poNumber"`
	SupplierID   string         `json:"supplierId"`
	SupplierName string         `json:"supplierName"`
	OrderDate    string         `json:"orderDate"`
	ExpectedDate string         `json:"expectedDate"`
	Status       PurchaseStatus `json:"status"`
	Items        []PurchaseItem `json:"items"`
	Total        float64        `json:"total"`
	CreatedBy    string         `json:"createdBy"`
}

// MovementType - direction of a stock movement
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// StockMovement - append-only audit trail of quantity entering or leaving
type StockMovement struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName"`
	Type        MovementType `json:"type"`
	Quantity    int          `json:"quantity"`
	Reference   string       `json:"reference"`
	Date        string       `json:"date"`
	Notes       string       `json:"notes"`
	CreatedBy   string       `json:"createdBy"`
}

// Session - the signed-in user as seen when the session was opened
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuditEntry - who changed what. Appended in the same update as the change itself.
type AuditEntry struct {
	ID       string    `json:"id"`
	Actor    string    `json:"actor"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entityId"`
	Detail   string    `json:"detail"`
	At       time.Time `json:"at"`
}
