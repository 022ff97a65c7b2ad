// Package seed holds the demo data written into an empty store.
package seed

import (
	"encoding/json"
	"fmt"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"
	"go-erp-agent/internal/utils"
)

// Data is one full set of collections.
type Data struct {
	Users          []models.User
	Customers      []models.Customer
	Suppliers      []models.Supplier
	Products       []models.Product
	Warehouses     []models.Warehouse
	SalesOrders    []models.SalesOrder
	PurchaseOrders []models.PurchaseOrder
}

type demoUser struct {
	id, name, email string
	role            models.Role
}

var demoUsers = []demoUser{
	{"1", "Abebe Kebede", "admin@etgcompany.et", models.RoleAdmin},
	{"2", "Sara Tesfaye", "manager@etgcompany.et", models.RoleManager},
	{"3", "Dawit Haile", "sales@etgcompany.et", models.RoleSales},
	{"4", "Meron Alemu", "procurement@etgcompany.et", models.RoleProcurement},
	{"5", "Yonas Girma", "warehouse@etgcompany.et", models.RoleWarehouse},
	{"6", "Hana Bekele", "finance@etgcompany.et", models.RoleFinance},
}

// Users returns the demo accounts. Each username is its role and the
// password is "<role>123".
func Users(cost int) ([]models.User, error) {
	users := make([]models.User, 0, len(demoUsers))
	for _, d := range demoUsers {
		hash, err := utils.HashPassword(string(d.role)+"123", cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", d.role, err)
		}
		users = append(users, models.User{
			ID:       d.id,
			Username: string(d.role),
			Password: hash,
			Name:     d.name,
			Email:    d.email,
			Role:     d.role,
			Active:   true,
		})
	}
	return users, nil
}

// Default builds the demo data set. cost is the bcrypt cost for the demo
// passwords; tests pass bcrypt.MinCost.
func Default(cost int) (*Data, error) {
	users, err := Users(cost)
	if err != nil {
		return nil, err
	}

	products := []models.Product{
		{ID: "1", Code: "CF-001", Name: "Coffee Beans (Yirgacheffe)", Category: "Agriculture", Unit: "kg", CostPrice: 8, SalePrice: 12, CurrentStock: 500, ReorderLevel: 100},
		{ID: "2", Code: "SS-001", Name: "Sesame Seeds", Category: "Agriculture", Unit: "kg", CostPrice: 3, SalePrice: 5, CurrentStock: 80, ReorderLevel: 100},
		{ID: "3", Code: "LG-001", Name: "Leather Bag", Category: "Leather Goods", Unit: "pcs", CostPrice: 25, SalePrice: 45, CurrentStock: 60, ReorderLevel: 20},
		{ID: "4", Code: "JW-001", Name: "Silver Necklace", Category: "Jewelry", Unit: "pcs", CostPrice: 40, SalePrice: 75, CurrentStock: 15, ReorderLevel: 10},
		{ID: "5", Code: "SP-001", Name: "Berbere Spice", Category: "Spices", Unit: "kg", CostPrice: 6, SalePrice: 10, CurrentStock: 200, ReorderLevel: 50},
		{ID: "6", Code: "TX-001", Name: "Cotton T-Shirt", Category: "Textiles", Unit: "pcs", CostPrice: 4, SalePrice: 9, CurrentStock: 8, ReorderLevel: 30},
	}

	customers := []models.Customer{
		{ID: "1", Name: "Addis Trading PLC", Email: "orders@addistrading.et", Phone: "+251-11-555-0101", Country: "Ethiopia", CreditLimit: 50000, CreatedAt: "2024-01-15"},
		{ID: "2", Name: "Nairobi Imports Ltd", Email: "buy@nairobiimports.ke", Phone: "+254-20-555-0102", Country: "Kenya", CreditLimit: 30000, CreatedAt: "2024-02-03"},
		{ID: "3", Name: "Hamburg Kaffee GmbH", Email: "einkauf@hamburgkaffee.de", Phone: "+49-40-555-0103", Country: "Germany", CreditLimit: 80000, CreatedAt: "2024-03-21"},
	}

	suppliers := []models.Supplier{
		{ID: "1", Name: "Sidama Coffee Union", Email: "sales@sidamaunion.et", Phone: "+251-46-555-0201", Country: "Ethiopia", PaymentTerms: "Net 30", CreatedAt: "2024-01-10"},
		{ID: "2", Name: "Humera Agro Exports", Email: "info@humeraagro.et", Phone: "+251-34-555-0202", Country: "Ethiopia", PaymentTerms: "Net 15", CreatedAt: "2024-02-12"},
		{ID: "3", Name: "Modjo Tannery", Email: "orders@modjotannery.et", Phone: "+251-22-555-0203", Country: "Ethiopia", PaymentTerms: "Net 45", CreatedAt: "2024-03-05"},
	}

	warehouses := []models.Warehouse{
		{ID: "1", Name: "Main Warehouse", Location: "Addis Ababa", Capacity: 10000},
		{ID: "2", Name: "Dire Dawa Depot", Location: "Dire Dawa", Capacity: 4000},
	}

	salesOrders := []models.SalesOrder{
		{
			ID: "SO1", OrderNumber: "SO-2024-0001", CustomerID: "3", CustomerName: "Hamburg Kaffee GmbH",
			OrderDate: "2024-11-04", DeliveryDate: "2024-11-11", Status: models.SalesCompleted,
			Items: []models.OrderItem{
				{ProductID: "1", ProductName: "Coffee Beans (Yirgacheffe)", Quantity: 200, UnitPrice: 12, CostPrice: 8, Total: 2400},
			},
			Subtotal: 2400, Tax: 240, Total: 2640, Profit: 800, CreatedBy: "Dawit Haile",
		},
		{
			ID: "SO2", OrderNumber: "SO-2024-0002", CustomerID: "1", CustomerName: "Addis Trading PLC",
			OrderDate: "2024-12-02", DeliveryDate: "2024-12-09", Status: models.SalesApproved,
			Items: []models.OrderItem{
				{ProductID: "3", ProductName: "Leather Bag", Quantity: 10, UnitPrice: 45, CostPrice: 25, Total: 450},
				{ProductID: "5", ProductName: "Berbere Spice", Quantity: 20, UnitPrice: 10, CostPrice: 6, Total: 200},
			},
			Subtotal: 650, Tax: 65, Total: 715, Profit: 280, CreatedBy: "Dawit Haile",
		},
		{
			ID: "SO3", OrderNumber: "SO-2024-0003", CustomerID: "2", CustomerName: "Nairobi Imports Ltd",
			OrderDate: "2024-12-10", DeliveryDate: "2024-12-17", Status: models.SalesDraft,
			Items: []models.OrderItem{
				{ProductID: "4", ProductName: "Silver Necklace", Quantity: 4, UnitPrice: 75, CostPrice: 40, Total: 300},
			},
			Subtotal: 300, Tax: 30, Total: 330, Profit: 140, CreatedBy: "Sara Tesfaye",
		},
	}

	purchaseOrders := []models.PurchaseOrder{
		{
			ID: "PO1", PONumber: "PO-2024-001", SupplierID: "1", SupplierName: "Sidama Coffee Union",
			OrderDate: "2024-11-01", ExpectedDate: "2024-11-29", Status: models.PurchaseReceived,
			Items: []models.PurchaseItem{
				{ProductID: "1", ProductName: "Coffee Beans (Yirgacheffe)", Quantity: 300, UnitPrice: 8, Total: 2400},
			},
			Total: 2400, CreatedBy: "Meron Alemu",
		},
		{
			ID: "PO2", PONumber: "PO-2024-002", SupplierID: "2", SupplierName: "Humera Agro Exports",
			OrderDate: "2024-12-05", ExpectedDate: "2025-01-02", Status: models.PurchaseOrdered,
			Items: []models.PurchaseItem{
				{ProductID: "2", ProductName: "Sesame Seeds", Quantity: 500, UnitPrice: 3, Total: 1500},
			},
			Total: 1500, CreatedBy: "Meron Alemu",
		},
	}

	return &Data{
		Users:          users,
		Customers:      customers,
		Suppliers:      suppliers,
		Products:       products,
		Warehouses:     warehouses,
		SalesOrders:    salesOrders,
		PurchaseOrders: purchaseOrders,
	}, nil
}

// Collections encodes d keyed by store collection. Stock movements and the
// audit log start empty.
func (d *Data) Collections() (map[store.Key][]byte, error) {
	lists := map[store.Key]any{
		store.Users:          d.Users,
		store.Customers:      d.Customers,
		store.Suppliers:      d.Suppliers,
		store.Products:       d.Products,
		store.Warehouses:     d.Warehouses,
		store.SalesOrders:    d.SalesOrders,
		store.PurchaseOrders: d.PurchaseOrders,
		store.StockMovements: []models.StockMovement{},
		store.AuditLog:       []models.AuditEntry{},
	}
	out := make(map[store.Key][]byte, len(lists))
	for key, list := range lists {
		data, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("encode seed %s: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}
