// Package services holds the ERP operations. Every read-modify-write goes
// through store.Update so concurrent requests cannot interleave.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-erp-agent/internal/metrics"
	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIllegalTransition = errors.New("illegal status transition")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
}

// InsufficientStockError is returned by StockOut when the product holds
// less than requested. Nothing is written.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock available. Current stock: %d", e.Available)
}

// Actor is the signed-in user on whose behalf an operation runs.
type Actor struct {
	UserID string
	Name   string
	Role   models.Role
}

func (a Actor) displayName() string {
	if a.Name == "" {
		return "Unknown"
	}
	return a.Name
}

type deps struct {
	store      store.Store
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	strict     bool
	bcryptCost int
}

func (d *deps) today() string {
	return d.now().Format(models.DateLayout)
}

// appendAudit adds an entry to the audit log inside an Update that declared store.AuditLog.
func (d *deps) appendAudit(tx store.Tx, actor Actor, action, entity, entityID, detail string) error {
	entries, err := store.DecodeList[models.AuditEntry](tx, store.AuditLog)
	if err != nil {
		return err
	}
	entries = append(entries, models.AuditEntry{
		ID:       uuid.NewString(),
		Actor:    actor.displayName(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
		At:       d.now(),
	})
	return store.EncodeList(tx, store.AuditLog, entries)
}

type Option func(*deps)

// WithClock replaces time.Now for dates, numbering and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithStrictTransitions only accepts the single forward status step.
func WithStrictTransitions(strict bool) Option {
	return func(d *deps) { d.strict = strict }
}

func WithBcryptCost(cost int) Option {
	return func(d *deps) { d.bcryptCost = cost }
}

// Services ERP service collection
type Services struct {
	Orders  *OrderService
	Stock   *StockService
	Catalog *CatalogService
	Users   *UserService
	Reports *ReportService
	Audit   *AuditService
}

func NewServices(s store.Store, log *zap.Logger, opts ...Option) *Services {
	d := &deps{
		store:      s,
		log:        log,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(d)
	}
	return &Services{
		Orders:  &OrderService{d},
		Stock:   &StockService{d},
		Catalog: &CatalogService{d},
		Users:   &UserService{d},
		Reports: &ReportService{d},
		Audit:   &AuditService{d},
	}
}

// AuditService reads the audit log.
type AuditService struct {
	*deps
}

// List returns the most recent entries first, at most limit (0 for all).
func (s *AuditService) List(ctx context.Context, entity string, limit int) []models.AuditEntry {
	entries := store.ReadList[models.AuditEntry](ctx, s.store, store.AuditLog, s.log)
	out := make([]models.AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if entity != "" && entries[i].Entity != entity {
			continue
		}
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
