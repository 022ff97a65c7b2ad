package services

import (
	"context"
	"testing"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestProductCRUD(t *testing.T) {
	svc, s := newTestServices(t)
	ctx := context.Background()

	p, err := svc.Catalog.CreateProduct(ctx, adminActor, ProductRequest{
		Code: "HN-001", Name: "Honey", Category: "Agriculture", Unit: "kg",
		CostPrice: 5, SalePrice: 9, CurrentStock: 40, ReorderLevel: 10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	_, err = svc.Catalog.CreateProduct(ctx, adminActor, ProductRequest{Code: "hn-001", Name: "Dup", Category: "x", Unit: "kg"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Catalog.CreateProduct(ctx, adminActor, ProductRequest{Code: "ZZ", Name: "No unit", Category: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.Catalog.UpdateProduct(ctx, adminActor, p.ID, ProductPatch{SalePrice: ptr(11.5)})
	require.NoError(t, err)
	assert.Equal(t, 11.5, updated.SalePrice)
	assert.Equal(t, "Honey", updated.Name)

	_, err = svc.Catalog.UpdateProduct(ctx, adminActor, p.ID, ProductPatch{Code: ptr("CF-001")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Len(t, svc.Catalog.ListProducts(ctx, "honey"), 1)
	assert.Len(t, svc.Catalog.ListProducts(ctx, "agri"), 3)

	require.NoError(t, svc.Catalog.DeleteProduct(ctx, adminActor, p.ID))
	_, err = svc.Catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Catalog.DeleteProduct(ctx, adminActor, p.ID), ErrNotFound)

	audit := store.ReadList[models.AuditEntry](ctx, s, store.AuditLog, nil)
	require.Len(t, audit, 3)
	assert.Equal(t, "delete", audit[2].Action)
}

func TestDeleteProduct_KeepsOrders(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	require.NoError(t, svc.Catalog.DeleteProduct(ctx, adminActor, "1"))
	order, err := svc.Orders.GetSalesOrder(ctx, "SO1")
	require.NoError(t, err)
	assert.Equal(t, "1", order.Items[0].ProductID)
}

func TestFindProductByName(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	p, err := svc.Catalog.FindProductByName(ctx, "sesame")
	require.NoError(t, err)
	assert.Equal(t, "SS-001", p.Code)

	p, err = svc.Catalog.FindProductByName(ctx, "jw-001")
	require.NoError(t, err)
	assert.Equal(t, "Silver Necklace", p.Name)

	_, err = svc.Catalog.FindProductByName(ctx, "unicorn")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomersAndSuppliers(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	c, err := svc.Catalog.CreateCustomer(ctx, salesActor, CustomerRequest{Name: "Kigali Foods", Country: "Rwanda", CreditLimit: 1000})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", c.CreatedAt)
	got, err := svc.Catalog.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kigali Foods", got.Name)
	assert.Len(t, svc.Catalog.ListCustomers(ctx, "rwanda"), 1)

	_, err = svc.Catalog.CreateCustomer(ctx, salesActor, CustomerRequest{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	sp, err := svc.Catalog.CreateSupplier(ctx, adminActor, SupplierRequest{Name: "Jimma Growers", PaymentTerms: "Net 30"})
	require.NoError(t, err)
	_, err = svc.Catalog.GetSupplier(ctx, sp.ID)
	require.NoError(t, err)
	assert.Len(t, svc.Catalog.ListSuppliers(ctx, ""), 4)

	assert.Len(t, svc.Catalog.ListWarehouses(ctx), 2)
}

func TestUsers(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	u, err := svc.Users.Create(ctx, adminActor, UserRequest{
		Username: "tigist", Password: "pw", Name: "Tigist Assefa", Email: "tigist@etgcompany.et", Role: "sales",
	})
	require.NoError(t, err)
	assert.True(t, u.Active)
	assert.Equal(t, models.RoleSales, u.Role)

	_, err = svc.Users.Create(ctx, adminActor, UserRequest{Username: "tigist", Password: "pw", Name: "Again", Role: "sales"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Users.Create(ctx, adminActor, UserRequest{Username: "x", Password: "pw", Name: "X", Role: "ceo"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.Users.Update(ctx, adminActor, u.ID, UserPatch{Role: ptr("finance"), Password: ptr("new-pw")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFinance, updated.Role)

	stored := store.ReadList[models.User](ctx, svc.Users.store, store.Users, nil)
	for _, su := range stored {
		if su.ID == u.ID {
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(su.Password), []byte("new-pw")))
		}
	}

	assert.Len(t, svc.Users.List(ctx, "tigist"), 1)
	assert.Len(t, svc.Users.List(ctx, ""), 7)

	assert.ErrorIs(t, svc.Users.Delete(ctx, adminActor, adminActor.UserID), ErrInvalidInput)
	require.NoError(t, svc.Users.Delete(ctx, adminActor, u.ID))
	_, err = svc.Users.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditList(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Orders.AdvanceSalesOrder(ctx, salesActor, "SO3")
	require.NoError(t, err)
	_, err = svc.Stock.StockIn(ctx, warehouseActor, StockRequest{ProductID: "1", Quantity: 1})
	require.NoError(t, err)

	all := svc.Audit.List(ctx, "", 0)
	require.Len(t, all, 2)
	assert.Equal(t, "stock_in", all[0].Action)
	assert.Len(t, svc.Audit.List(ctx, "sales_order", 0), 1)
	assert.Len(t, svc.Audit.List(ctx, "", 1), 1)
}
