package seed

import (
	"context"
	"testing"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefault_OneUserPerRole(t *testing.T) {
	data, err := Default(bcrypt.MinCost)
	require.NoError(t, err)

	seen := map[models.Role]bool{}
	for _, u := range data.Users {
		seen[u.Role] = true
		assert.Equal(t, string(u.Role), u.Username)
		assert.True(t, u.Active)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(u.Username+"123")))
	}
	for _, r := range models.AllRoles {
		assert.True(t, seen[r], "missing demo user for %s", r)
	}
}

func TestDefault_OrderTotalsAreConsistent(t *testing.T) {
	data, err := Default(bcrypt.MinCost)
	require.NoError(t, err)

	for _, o := range data.SalesOrders {
		var subtotal, profit float64
		for _, it := range o.Items {
			subtotal += float64(it.Quantity) * it.UnitPrice
			profit += float64(it.Quantity) * (it.UnitPrice - it.CostPrice)
		}
		assert.InDelta(t, subtotal, o.Subtotal, 0.001, o.OrderNumber)
		assert.InDelta(t, subtotal*0.1, o.Tax, 0.001, o.OrderNumber)
		assert.InDelta(t, o.Subtotal+o.Tax, o.Total, 0.001, o.OrderNumber)
		assert.InDelta(t, profit, o.Profit, 0.001, o.OrderNumber)
	}
}

func TestCollections_InitializeStore(t *testing.T) {
	data, err := Default(bcrypt.MinCost)
	require.NoError(t, err)
	cols, err := data.Collections()
	require.NoError(t, err)

	s := store.NewMemoryStore()
	ctx := context.Background()
	written, err := store.Initialize(ctx, s, cols)
	require.NoError(t, err)
	assert.ElementsMatch(t, store.Collections, written)

	products := store.ReadList[models.Product](ctx, s, store.Products, nil)
	assert.Len(t, products, len(data.Products))
	movements := store.ReadList[models.StockMovement](ctx, s, store.StockMovements, nil)
	assert.Empty(t, movements)
}
