package services

import (
	"context"
	"errors"
	"fmt"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultStockInReference  = "Direct Entry"
	defaultStockOutReference = "Direct Issue"
)

// StockService moves quantity in and out of products and keeps the movement ledger.
type StockService struct {
	*deps
}

type StockRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// StockIn records received quantity.
func (s *StockService) StockIn(ctx context.Context, actor Actor, req StockRequest) (*models.StockMovement, error) {
	return s.move(ctx, actor, models.MovementIn, req)
}

// StockOut records issued quantity. It fails with *InsufficientStockError
// when the product holds less than requested, leaving everything unchanged.
func (s *StockService) StockOut(ctx context.Context, actor Actor, req StockRequest) (*models.StockMovement, error) {
	return s.move(ctx, actor, models.MovementOut, req)
}

// move updates the product and appends the movement in one transaction, so
// no reader ever sees one without the other.
func (s *StockService) move(ctx context.Context, actor Actor, typ models.MovementType, req StockRequest) (*models.StockMovement, error) {
	if req.ProductID == "" {
		return nil, invalid("product is required")
	}
	if req.Quantity <= 0 {
		return nil, invalid("quantity must be greater than zero")
	}
	reference := req.Reference
	if reference == "" {
		reference = defaultStockInReference
		if typ == models.MovementOut {
			reference = defaultStockOutReference
		}
	}

	var movement models.StockMovement
	var after int
	keys := []store.Key{store.Products, store.StockMovements, store.AuditLog}
	err := s.store.Update(ctx, keys, func(tx store.Tx) error {
		products, err := store.DecodeList[models.Product](tx, store.Products)
		if err != nil {
			return err
		}
		idx := -1
		for i := range products {
			if products[i].ID == req.ProductID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound("product", req.ProductID)
		}
		p := &products[idx]

		switch typ {
		case models.MovementIn:
			p.CurrentStock += req.Quantity
		case models.MovementOut:
			if p.CurrentStock < req.Quantity {
				return &InsufficientStockError{ProductID: p.ID, Available: p.CurrentStock, Requested: req.Quantity}
			}
			p.CurrentStock -= req.Quantity
		}
		after = p.CurrentStock

		movements, err := store.DecodeList[models.StockMovement](tx, store.StockMovements)
		if err != nil {
			return err
		}
		movement = models.StockMovement{
			ID:          "SM" + uuid.NewString(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Type:        typ,
			Quantity:    req.Quantity,
			Reference:   reference,
			Date:        s.today(),
			Notes:       req.Notes,
			CreatedBy:   actor.displayName(),
		}
		if err := store.EncodeList(tx, store.Products, products); err != nil {
			return err
		}
		if err := store.EncodeList(tx, store.StockMovements, append(movements, movement)); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "stock_"+string(typ), "product", p.ID,
			fmt.Sprintf("%d units, ref %s, stock now %d", req.Quantity, reference, after))
	})
	if err != nil {
		var short *InsufficientStockError
		if errors.As(err, &short) {
			s.metrics.StockOutRejected()
			s.log.Info("stock out rejected", zap.String("product_id", req.ProductID), zap.Int("requested", req.Quantity), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.StockMoved(string(typ))
	s.log.Info("stock movement recorded",
		zap.String("type", string(typ)),
		zap.String("product", movement.ProductName),
		zap.Int("quantity", movement.Quantity),
		zap.Int("stock_after", after),
		zap.String("by", movement.CreatedBy))
	return &movement, nil
}

type MovementFilter struct {
	ProductID string
	Type      string
}

// ListMovements returns the ledger newest first.
func (s *StockService) ListMovements(ctx context.Context, f MovementFilter) []models.StockMovement {
	movements := store.ReadList[models.StockMovement](ctx, s.store, store.StockMovements, s.log)
	out := make([]models.StockMovement, 0, len(movements))
	for i := len(movements) - 1; i >= 0; i-- {
		m := movements[i]
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.Type != "" && string(m.Type) != f.Type {
			continue
		}
		out = append(out, m)
	}
	return out
}

// LowStock lists products at or below their reorder level.
func (s *StockService) LowStock(ctx context.Context) []models.Product {
	products := store.ReadList[models.Product](ctx, s.store, store.Products, s.log)
	out := make([]models.Product, 0)
	for _, p := range products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}
