package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSalesStatus_NextWalksLifecycle(t *testing.T) {
	st := SalesDraft
	var seen []SalesStatus
	for {
		seen = append(seen, st)
		next, ok := st.Next()
		if !ok {
			break
		}
		st = next
	}
	assert.Equal(t, SalesStatuses, seen)
}

func TestSalesStatus_UnknownValue(t *testing.T) {
	_, err := ParseSalesStatus("cancelled")
	assert.Error(t, err)

	_, ok := SalesStatus("cancelled").Next()
	assert.False(t, ok)
	assert.Equal(t, -1, SalesStatus("").Rank())
}

func TestPurchaseStatus_NextWalksLifecycle(t *testing.T) {
	st := PurchaseDraft
	var seen []PurchaseStatus
	for {
		seen = append(seen, st)
		next, ok := st.Next()
		if !ok {
			break
		}
		st = next
	}
	assert.Equal(t, PurchaseStatuses, seen)

	got, err := ParsePurchaseStatus("received")
	assert.NoError(t, err)
	assert.Equal(t, PurchaseReceived, got)
}

func TestPending(t *testing.T) {
	assert.True(t, SalesApproved.Pending())
	assert.False(t, SalesShipped.Pending())
	assert.True(t, PurchaseOrdered.Pending())
	assert.False(t, PurchaseReceived.Pending())
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		assert.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRole("cashier")
	assert.Error(t, err)
}

func TestProduct_IsLowStock(t *testing.T) {
	assert.True(t, Product{CurrentStock: 5, ReorderLevel: 5}.IsLowStock())
	assert.False(t, Product{CurrentStock: 6, ReorderLevel: 5}.IsLowStock())
}
