package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TaxRate applied to every sales order subtotal.
var TaxRate = decimal.NewFromFloat(0.10)

const (
	salesDeliveryDays    = 7
	purchaseExpectedDays = 28
)

// Totals are the derived amounts of a sales order.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Profit   float64 `json:"profit"`
}

// CalculateTotals fills each item's total and sums the order. Arithmetic is
// decimal; results are not rounded.
func CalculateTotals(items []models.OrderItem) (Totals, []models.OrderItem) {
	subtotal := decimal.Zero
	profit := decimal.Zero
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		unit := decimal.NewFromFloat(it.UnitPrice)
		cost := decimal.NewFromFloat(it.CostPrice)

		line := qty.Mul(unit)
		subtotal = subtotal.Add(line)
		profit = profit.Add(qty.Mul(unit.Sub(cost)))

		it.Total = line.InexactFloat64()
		out[i] = it
	}
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    subtotal.Add(tax).InexactFloat64(),
		Profit:   profit.InexactFloat64(),
	}, out
}

// OrderService handles sales and purchase orders.
type OrderService struct {
	*deps
}

type OrderItemRequest struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Quantity    int      `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
	CostPrice   *float64 `json:"costPrice"`
}

type SalesOrderRequest struct {
	CustomerID   string             `json:"customerId"`
	OrderDate    string             `json:"orderDate"`
	DeliveryDate string             `json:"deliveryDate"`
	Items        []OrderItemRequest `json:"items"`
}

type PurchaseOrderRequest struct {
	SupplierID   string             `json:"supplierId"`
	OrderDate    string             `json:"orderDate"`
	ExpectedDate string             `json:"expectedDate"`
	Items        []OrderItemRequest `json:"items"`
}

func validateItems(items []OrderItemRequest) error {
	if len(items) == 0 {
		return invalid("at least one item is required")
	}
	for i, it := range items {
		if it.ProductID == "" {
			return invalid("item %d: product is required", i+1)
		}
		if it.Quantity <= 0 {
			return invalid("item %d: quantity must be greater than zero", i+1)
		}
		if it.UnitPrice != nil && *it.UnitPrice < 0 {
			return invalid("item %d: unit price cannot be negative", i+1)
		}
		if it.CostPrice != nil && *it.CostPrice < 0 {
			return invalid("item %d: cost price cannot be negative", i+1)
		}
	}
	return nil
}

func (s *OrderService) dateOrDefault(value string, days int) (string, error) {
	if value == "" {
		return s.now().AddDate(0, 0, days).Format(models.DateLayout), nil
	}
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		return "", invalid("date %q must be YYYY-MM-DD", value)
	}
	return value, nil
}

// nextNumber returns prefix-<year>-<seq> one above the highest sequence
// already used for that year.
func nextNumber(prefix string, year, width int, existing []string) string {
	head := fmt.Sprintf("%s-%d-", prefix, year)
	highest := 0
	for _, n := range existing {
		if !strings.HasPrefix(n, head) {
			continue
		}
		if seq, err := strconv.Atoi(strings.TrimPrefix(n, head)); err == nil && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%0*d", head, width, highest+1)
}

func findProduct(products []models.Product, id string) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *OrderService) CreateSalesOrder(ctx context.Context, actor Actor, req SalesOrderRequest) (*models.SalesOrder, error) {
	if req.CustomerID == "" {
		return nil, invalid("customer is required")
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	orderDate, err := s.dateOrDefault(req.OrderDate, 0)
	if err != nil {
		return nil, err
	}
	deliveryDate, err := s.dateOrDefault(req.DeliveryDate, salesDeliveryDays)
	if err != nil {
		return nil, err
	}

	var created models.SalesOrder
	keys := []store.Key{store.Customers, store.Products, store.SalesOrders}
	err = s.store.Update(ctx, keys, func(tx store.Tx) error {
		customers, err := store.DecodeList[models.Customer](tx, store.Customers)
		if err != nil {
			return err
		}
		var customer *models.Customer
		for i := range customers {
			if customers[i].ID == req.CustomerID {
				customer = &customers[i]
				break
			}
		}
		if customer == nil {
			return invalid("unknown customer %s", req.CustomerID)
		}

		products, err := store.DecodeList[models.Product](tx, store.Products)
		if err != nil {
			return err
		}
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			p, ok := findProduct(products, it.ProductID)
			if !ok {
				return invalid("unknown product %s", it.ProductID)
			}
			item := models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.SalePrice,
				CostPrice:   p.CostPrice,
			}
			if it.ProductName != "" {
				item.ProductName = it.ProductName
			}
			if it.UnitPrice != nil {
				item.UnitPrice = *it.UnitPrice
			}
			if it.CostPrice != nil {
				item.CostPrice = *it.CostPrice
			}
			items = append(items, item)
		}
		totals, items := CalculateTotals(items)

		orders, err := store.DecodeList[models.SalesOrder](tx, store.SalesOrders)
		if err != nil {
			return err
		}
		numbers := make([]string, len(orders))
		for i, o := range orders {
			numbers[i] = o.OrderNumber
		}

		created = models.SalesOrder{
			ID:           "SO" + uuid.NewString(),
			OrderNumber:  nextNumber("SO", s.now().Year(), 4, numbers),
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			OrderDate:    orderDate,
			DeliveryDate: deliveryDate,
			Status:       models.SalesDraft,
			Items:        items,
			Subtotal:     totals.Subtotal,
			Tax:          totals.Tax,
			Total:        totals.Total,
			Profit:       totals.Profit,
			CreatedBy:    actor.displayName(),
		}
		return store.EncodeList(tx, store.SalesOrders, append(orders, created))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated("sales")
	s.log.Info("sales order created",
		zap.String("order_number", created.OrderNumber),
		zap.String("customer", created.CustomerName),
		zap.Float64("total", created.Total),
		zap.String("created_by", created.CreatedBy))
	return &created, nil
}

func (s *OrderService) CreatePurchaseOrder(ctx context.Context, actor Actor, req PurchaseOrderRequest) (*models.PurchaseOrder, error) {
	if req.SupplierID == "" {
		return nil, invalid("supplier is required")
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	orderDate, err := s.dateOrDefault(req.OrderDate, 0)
	if err != nil {
		return nil, err
	}
	expectedDate, err := s.dateOrDefault(req.ExpectedDate, purchaseExpectedDays)
	if err != nil {
		return nil, err
	}

	var created models.PurchaseOrder
	keys := []store.Key{store.Suppliers, store.Products, store.PurchaseOrders}
	err = s.store.Update(ctx, keys, func(tx store.Tx) error {
		suppliers, err := store.DecodeList[models.Supplier](tx, store.Suppliers)
		if err != nil {
			return err
		}
		var supplier *models.Supplier
		for i := range suppliers {
			if suppliers[i].ID == req.SupplierID {
				supplier = &suppliers[i]
				break
			}
		}
		if supplier == nil {
			return invalid("unknown supplier %s", req.SupplierID)
		}

		products, err := store.DecodeList[models.Product](tx, store.Products)
		if err != nil {
			return err
		}
		total := decimal.Zero
		items := make([]models.PurchaseItem, 0, len(req.Items))
		for _, it := range req.Items {
			p, ok := findProduct(products, it.ProductID)
			if !ok {
				return invalid("unknown product %s", it.ProductID)
			}
			// purchases are priced at cost unless the buyer says otherwise
			unit := p.CostPrice
			if it.UnitPrice != nil {
				unit = *it.UnitPrice
			}
			name := p.Name
			if it.ProductName != "" {
				name = it.ProductName
			}
			line := decimal.NewFromInt(int64(it.Quantity)).Mul(decimal.NewFromFloat(unit))
			total = total.Add(line)
			items = append(items, models.PurchaseItem{
				ProductID:   p.ID,
				ProductName: name,
				Quantity:    it.Quantity,
				UnitPrice:   unit,
				CostPrice:   it.CostPrice,
				Total:       line.InexactFloat64(),
			})
		}

		orders, err := store.DecodeList[models.PurchaseOrder](tx, store.PurchaseOrders)
		if err != nil {
			return err
		}
		numbers := make([]string, len(orders))
		for i, o := range orders {
			numbers[i] = o.PONumber
		}

		created = models.PurchaseOrder{
			ID:           "PO" + uuid.NewString(),
			PONumber:     nextNumber("PO", s.now().Year(), 3, numbers),
			SupplierID:   supplier.ID,
			SupplierName: supplier.Name,
			OrderDate:    orderDate,
			ExpectedDate: expectedDate,
			Status:       models.PurchaseDraft,
			Items:        items,
			Total:        total.InexactFloat64(),
			CreatedBy:    actor.displayName(),
		}
		return store.EncodeList(tx, store.PurchaseOrders, append(orders, created))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated("purchase")
	s.log.Info("purchase order created",
		zap.String("po_number", created.PONumber),
		zap.String("supplier", created.SupplierName),
		zap.Float64("total", created.Total),
		zap.String("created_by", created.CreatedBy))
	return &created, nil
}

// SetSalesOrderStatus overwrites the stored status with target. Any member
// of the lifecycle is accepted unless strict transitions are enabled, in
// which case only the next step is.
func (s *OrderService) SetSalesOrderStatus(ctx context.Context, actor Actor, id, target string) (*models.SalesOrder, error) {
	status, err := models.ParseSalesStatus(target)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return s.updateSalesStatus(ctx, actor, id, func(current models.SalesStatus) (models.SalesStatus, error) {
		if s.strict {
			if next, ok := current.Next(); !ok || next != status {
				return "", fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, status)
			}
		}
		return status, nil
	})
}

// AdvanceSalesOrder moves the order one step forward in its lifecycle.
func (s *OrderService) AdvanceSalesOrder(ctx context.Context, actor Actor, id string) (*models.SalesOrder, error) {
	return s.updateSalesStatus(ctx, actor, id, func(current models.SalesStatus) (models.SalesStatus, error) {
		next, ok := current.Next()
		if !ok {
			return "", fmt.Errorf("%w: %s is final", ErrIllegalTransition, current)
		}
		return next, nil
	})
}

func (s *OrderService) updateSalesStatus(ctx context.Context, actor Actor, id string, decide func(models.SalesStatus) (models.SalesStatus, error)) (*models.SalesOrder, error) {
	var updated models.SalesOrder
	var from models.SalesStatus
	err := s.store.Update(ctx, []store.Key{store.SalesOrders, store.AuditLog}, func(tx store.Tx) error {
		orders, err := store.DecodeList[models.SalesOrder](tx, store.SalesOrders)
		if err != nil {
			return err
		}
		for i := range orders {
			if orders[i].ID != id {
				continue
			}
			from = orders[i].Status
			to, err := decide(from)
			if err != nil {
				return err
			}
			orders[i].Status = to
			updated = orders[i]
			if err := store.EncodeList(tx, store.SalesOrders, orders); err != nil {
				return err
			}
			return s.appendAudit(tx, actor, "status_change", "sales_order", id, fmt.Sprintf("%s -> %s", from, to))
		}
		return notFound("sales order", id)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged("sales", string(updated.Status))
	s.log.Info("sales order status updated",
		zap.String("order_number", updated.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("by", actor.displayName()))
	return &updated, nil
}

// SetPurchaseOrderStatus is SetSalesOrderStatus for purchase orders.
func (s *OrderService) SetPurchaseOrderStatus(ctx context.Context, actor Actor, id, target string) (*models.PurchaseOrder, error) {
	status, err := models.ParsePurchaseStatus(target)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return s.updatePurchaseStatus(ctx, actor, id, func(current models.PurchaseStatus) (models.PurchaseStatus, error) {
		if s.strict {
			if next, ok := current.Next(); !ok || next != status {
				return "", fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, status)
			}
		}
		return status, nil
	})
}

func (s *OrderService) AdvancePurchaseOrder(ctx context.Context, actor Actor, id string) (*models.PurchaseOrder, error) {
	return s.updatePurchaseStatus(ctx, actor, id, func(current models.PurchaseStatus) (models.PurchaseStatus, error) {
		next, ok := current.Next()
		if !ok {
			return "", fmt.Errorf("%w: %s is final", ErrIllegalTransition, current)
		}
		return next, nil
	})
}

func (s *OrderService) updatePurchaseStatus(ctx context.Context, actor Actor, id string, decide func(models.PurchaseStatus) (models.PurchaseStatus, error)) (*models.PurchaseOrder, error) {
	var updated models.PurchaseOrder
	var from models.PurchaseStatus
	err := s.store.Update(ctx, []store.Key{store.PurchaseOrders, store.AuditLog}, func(tx store.Tx) error {
		orders, err := store.DecodeList[models.PurchaseOrder](tx, store.PurchaseOrders)
		if err != nil {
			return err
		}
		for i := range orders {
			if orders[i].ID != id {
				continue
			}
			from = orders[i].Status
			to, err := decide(from)
			if err != nil {
				return err
			}
			orders[i].Status = to
			updated = orders[i]
			if err := store.EncodeList(tx, store.PurchaseOrders, orders); err != nil {
				return err
			}
			return s.appendAudit(tx, actor, "status_change", "purchase_order", id, fmt.Sprintf("%s -> %s", from, to))
		}
		return notFound("purchase order", id)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged("purchase", string(updated.Status))
	s.log.Info("purchase order status updated",
		zap.String("po_number", updated.PONumber),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("by", actor.displayName()))
	return &updated, nil
}

type SalesOrderFilter struct {
	Search    string
	Status    string
	CreatedBy string
}

// ListSalesOrders filters by order number or customer name (case-insensitive),
// status and creator.
func (s *OrderService) ListSalesOrders(ctx context.Context, f SalesOrderFilter) []models.SalesOrder {
	orders := store.ReadList[models.SalesOrder](ctx, s.store, store.SalesOrders, s.log)
	out := make([]models.SalesOrder, 0, len(orders))
	for _, o := range orders {
		if f.Search != "" && !containsFold(o.OrderNumber, f.Search) && !containsFold(o.CustomerName, f.Search) {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.CreatedBy != "" && o.CreatedBy != f.CreatedBy {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (s *OrderService) GetSalesOrder(ctx context.Context, id string) (*models.SalesOrder, error) {
	for _, o := range store.ReadList[models.SalesOrder](ctx, s.store, store.SalesOrders, s.log) {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, notFound("sales order", id)
}

type PurchaseOrderFilter struct {
	Search string
	Status string
}

func (s *OrderService) ListPurchaseOrders(ctx context.Context, f PurchaseOrderFilter) []models.PurchaseOrder {
	orders := store.ReadList[models.PurchaseOrder](ctx, s.store, store.PurchaseOrders, s.log)
	out := make([]models.PurchaseOrder, 0, len(orders))
	for _, o := range orders {
		if f.Search != "" && !containsFold(o.PONumber, f.Search) && !containsFold(o.SupplierName, f.Search) {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (s *OrderService) GetPurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	for _, o := range store.ReadList[models.PurchaseOrder](ctx, s.store, store.PurchaseOrders, s.log) {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, notFound("purchase order", id)
}
