package services

import (
	"context"
	"strings"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages products, customers, suppliers and warehouses.
type CatalogService struct {
	*deps
}

type ProductRequest struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	CostPrice    float64 `json:"costPrice"`
	SalePrice    float64 `json:"salePrice"`
	CurrentStock int     `json:"currentStock"`
	ReorderLevel int     `json:"reorderLevel"`
}

// ProductPatch carries only the fields to change.
type ProductPatch struct {
	Code         *string  `json:"code"`
	Name         *string  `json:"name"`
	Category     *string  `json:"category"`
	Unit         *string  `json:"unit"`
	CostPrice    *float64 `json:"costPrice"`
	SalePrice    *float64 `json:"salePrice"`
	CurrentStock *int     `json:"currentStock"`
	ReorderLevel *int     `json:"reorderLevel"`
}

func validateProduct(p models.Product) error {
	if strings.TrimSpace(p.Code) == "" || strings.TrimSpace(p.Name) == "" ||
		strings.TrimSpace(p.Category) == "" || strings.TrimSpace(p.Unit) == "" {
		return invalid("code, name, category and unit are required")
	}
	if p.CostPrice < 0 || p.SalePrice < 0 {
		return invalid("prices cannot be negative")
	}
	if p.CurrentStock < 0 || p.ReorderLevel < 0 {
		return invalid("stock and reorder level cannot be negative")
	}
	return nil
}

// ListProducts matches search against code, name and category.
func (s *CatalogService) ListProducts(ctx context.Context, search string) []models.Product {
	products := store.ReadList[models.Product](ctx, s.store, store.Products, s.log)
	if search == "" {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if containsFold(p.Code, search) || containsFold(p.Name, search) || containsFold(p.Category, search) {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	products := store.ReadList[models.Product](ctx, s.store, store.Products, s.log)
	if p, ok := findProduct(products, id); ok {
		return &p, nil
	}
	return nil, notFound("product", id)
}

// FindProductByName returns the first product whose name or code contains name.
func (s *CatalogService) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	for _, p := range store.ReadList[models.Product](ctx, s.store, store.Products, s.log) {
		if containsFold(p.Name, name) || strings.EqualFold(p.Code, name) {
			return &p, nil
		}
	}
	return nil, notFound("product", name)
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, req ProductRequest) (*models.Product, error) {
	p := models.Product{
		ID:           "P" + uuid.NewString(),
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Unit:         req.Unit,
		CostPrice:    req.CostPrice,
		SalePrice:    req.SalePrice,
		CurrentStock: req.CurrentStock,
		ReorderLevel: req.ReorderLevel,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	err := s.store.Update(ctx, []store.Key{store.Products, store.AuditLog}, func(tx store.Tx) error {
		products, err := store.DecodeList[models.Product](tx, store.Products)
		if err != nil {
			return err
		}
		for _, existing := range products {
			if strings.EqualFold(existing.Code, p.Code) {
				return invalid("product code %s already exists", p.Code)
			}
		}
		if err := store.EncodeList(tx, store.Products, append(products, p)); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "create", "product", p.ID, p.Code)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("code", p.Code), zap.String("by", actor.displayName()))
	return &p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id string, patch ProductPatch) (*models.Product, error) {
	var updated models.Product
	err := s.store.Update(ctx, []store.Key{store.Products, store.AuditLog}, func(tx store.Tx) error {
		products, err := store.DecodeList[models.Product](tx, store.Products)
		if err != nil {
			return err
		}
		idx := -1
		for i := range products {
			if products[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound("product", id)
		}

		p := products[idx]
		if patch.Code != nil {
			p.Code = strings.TrimSpace(*patch.Code)
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Unit != nil {
			p.Unit = *patch.Unit
		}
		if patch.CostPrice != nil {
			p.CostPrice = *patch.CostPrice
		}
		if patch.SalePrice != nil {
			p.SalePrice = *patch.SalePrice
		}
		if patch.CurrentStock != nil {
			p.CurrentStock = *patch.CurrentStock
		}
		if patch.ReorderLevel != nil {
			p.ReorderLevel = *patch.ReorderLevel
		}
		if err := validateProduct(p); err != nil {
			return err
		}
		for i, existing := range products {
			if i != idx && strings.EqualFold(existing.Code, p.Code) {
				return invalid("product code %s already exists", p.Code)
			}
		}

		products[idx] = p
		updated = p
		if err := store.EncodeList(tx, store.Products, products); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "update", "product", p.ID, p.Code)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product updated", zap.String("code", updated.Code), zap.String("by", actor.displayName()))
	return &updated, nil
}

// DeleteProduct removes the product. Orders and movements that reference it are kept.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	err := s.store.Update(ctx, []store.Key{store.Products, store.AuditLog}, func(tx store.Tx) error {
		products, err := store.DecodeList[models.Product](tx, store.Products)
		if err != nil {
			return err
		}
		for i, p := range products {
			if p.ID != id {
				continue
			}
			products = append(products[:i], products[i+1:]...)
			if err := store.EncodeList(tx, store.Products, products); err != nil {
				return err
			}
			return s.appendAudit(tx, actor, "delete", "product", id, p.Code)
		}
		return notFound("product", id)
	})
	if err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("id", id), zap.String("by", actor.displayName()))
	return nil
}

type CustomerRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Country     string  `json:"country"`
	CreditLimit float64 `json:"creditLimit"`
}

func (s *CatalogService) ListCustomers(ctx context.Context, search string) []models.Customer {
	customers := store.ReadList[models.Customer](ctx, s.store, store.Customers, s.log)
	if search == "" {
		return customers
	}
	out := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		if containsFold(c.Name, search) || containsFold(c.Email, search) || containsFold(c.Country, search) {
			out = append(out, c)
		}
	}
	return out
}

func (s *CatalogService) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	for _, c := range store.ReadList[models.Customer](ctx, s.store, store.Customers, s.log) {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, notFound("customer", id)
}

func (s *CatalogService) CreateCustomer(ctx context.Context, actor Actor, req CustomerRequest) (*models.Customer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("customer name is required")
	}
	if req.CreditLimit < 0 {
		return nil, invalid("credit limit cannot be negative")
	}
	c := models.Customer{
		ID:          "C" + uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Email:       req.Email,
		Phone:       req.Phone,
		Country:     req.Country,
		CreditLimit: req.CreditLimit,
		CreatedAt:   s.today(),
	}
	err := s.store.Update(ctx, []store.Key{store.Customers}, func(tx store.Tx) error {
		customers, err := store.DecodeList[models.Customer](tx, store.Customers)
		if err != nil {
			return err
		}
		return store.EncodeList(tx, store.Customers, append(customers, c))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("customer created", zap.String("name", c.Name), zap.String("by", actor.displayName()))
	return &c, nil
}

type SupplierRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Country      string `json:"country"`
	PaymentTerms string `json:"paymentTerms"`
}

func (s *CatalogService) ListSuppliers(ctx context.Context, search string) []models.Supplier {
	suppliers := store.ReadList[models.Supplier](ctx, s.store, store.Suppliers, s.log)
	if search == "" {
		return suppliers
	}
	out := make([]models.Supplier, 0, len(suppliers))
	for _, sp := range suppliers {
		if containsFold(sp.Name, search) || containsFold(sp.Email, search) || containsFold(sp.Country, search) {
			out = append(out, sp)
		}
	}
	return out
}

func (s *CatalogService) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	for _, sp := range store.ReadList[models.Supplier](ctx, s.store, store.Suppliers, s.log) {
		if sp.ID == id {
			return &sp, nil
		}
	}
	return nil, notFound("supplier", id)
}

func (s *CatalogService) CreateSupplier(ctx context.Context, actor Actor, req SupplierRequest) (*models.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("supplier name is required")
	}
	sp := models.Supplier{
		ID:           "S" + uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		Country:      req.Country,
		PaymentTerms: req.PaymentTerms,
		CreatedAt:    s.today(),
	}
	err := s.store.Update(ctx, []store.Key{store.Suppliers}, func(tx store.Tx) error {
		suppliers, err := store.DecodeList[models.Supplier](tx, store.Suppliers)
		if err != nil {
			return err
		}
		return store.EncodeList(tx, store.Suppliers, append(suppliers, sp))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("supplier created", zap.String("name", sp.Name), zap.String("by", actor.displayName()))
	return &sp, nil
}

func (s *CatalogService) ListWarehouses(ctx context.Context) []models.Warehouse {
	return store.ReadList[models.Warehouse](ctx, s.store, store.Warehouses, s.log)
}
