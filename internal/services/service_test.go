package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-erp-agent/internal/config"
	"go-erp-agent/internal/database"
	"go-erp-agent/internal/models"
	"go-erp-agent/internal/seed"
	"go-erp-agent/internal/store"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

var (
	salesActor     = Actor{UserID: "3", Name: "Dawit Haile", Role: models.RoleSales}
	warehouseActor = Actor{UserID: "5", Name: "Yonas Girma", Role: models.RoleWarehouse}
	adminActor     = Actor{UserID: "1", Name: "Abebe Kebede", Role: models.RoleAdmin}
)

// newTestServices returns services over a memory store holding the demo data.
func newTestServices(t *testing.T, opts ...Option) (*Services, store.Store) {
	t.Helper()
	return newTestServicesOn(t, store.NewMemoryStore(), opts...)
}

// newTestServicesOn seeds s with the demo data and builds services over it.
func newTestServicesOn(t *testing.T, s store.Store, opts ...Option) (*Services, store.Store) {
	t.Helper()
	data, err := seed.Default(bcrypt.MinCost)
	require.NoError(t, err)
	cols, err := data.Collections()
	require.NoError(t, err)
	_, err = store.Initialize(context.Background(), s, cols)
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewServices(s, zap.NewNop(), opts...), s
}

// testBackends builds one empty store per persistent backend.
func testBackends() map[string]func(t *testing.T) store.Store {
	return map[string]func(t *testing.T) store.Store{
		"memory": func(t *testing.T) store.Store { return store.NewMemoryStore() },
		"gorm": func(t *testing.T) store.Store {
			db, err := database.Connect(config.DatabaseConfig{
				Driver:   "sqlite",
				DSN:      filepath.Join(t.TempDir(), "erp.db"),
				LogLevel: "silent",
			}, zap.NewNop())
			require.NoError(t, err)
			s, err := store.NewGormStore(db)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"redis": func(t *testing.T) store.Store {
			mr := miniredis.RunT(t)
			s, err := store.NewRedisStore(context.Background(), mr.Addr(), "", 0)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

// putProducts replaces the product collection.
func putProducts(t *testing.T, s store.Store, products ...models.Product) {
	t.Helper()
	require.NoError(t, store.WriteList(context.Background(), s, store.Products, products))
}

func ptr[T any](v T) *T { return &v }
