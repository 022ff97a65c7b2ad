package services

import (
	"bytes"
	"context"
	"testing"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDashboards(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	admin := svc.Reports.Admin(ctx)
	assert.Equal(t, 3685.0, admin.TotalRevenue)
	assert.Equal(t, 1220.0, admin.TotalProfit)
	assert.Equal(t, 3, admin.TotalOrders)
	assert.Equal(t, 6, admin.ActiveUsers)
	assert.Equal(t, 2, admin.LowStockProducts)
	assert.Equal(t, []StatusCount{{"draft", 1}, {"approved", 1}, {"shipped", 0}, {"delivered", 0}, {"completed", 1}}, admin.OrdersByStatus)
	require.Len(t, admin.Monthly, 2)
	assert.Equal(t, "2024-11", admin.Monthly[0].Month)
	assert.Equal(t, 2640.0, admin.Monthly[0].Revenue)
	assert.Equal(t, "Coffee Beans (Yirgacheffe)", admin.TopSelling[0].ProductName)

	manager := svc.Reports.Manager(ctx)
	assert.Equal(t, 2, manager.PendingSales)
	assert.Equal(t, 1, manager.PendingPurchases)

	sales := svc.Reports.Sales(ctx, "Dawit Haile")
	assert.Equal(t, 2, sales.TotalOrders)
	assert.Equal(t, 3355.0, sales.TotalRevenue)
	assert.Equal(t, 1, sales.PendingOrders)
	assert.Equal(t, "SO2", sales.RecentOrders[0].ID)
	assert.Zero(t, svc.Reports.Sales(ctx, "").TotalOrders)

	proc := svc.Reports.Procurement(ctx)
	assert.Equal(t, 3900.0, proc.TotalSpend)
	assert.Equal(t, 1, proc.PendingOrders)
	assert.Equal(t, 2, proc.LowStockProducts)
}

func TestWarehouseDashboard(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Stock.StockIn(ctx, warehouseActor, StockRequest{ProductID: "1", Quantity: 30})
	require.NoError(t, err)
	_, err = svc.Stock.StockOut(ctx, warehouseActor, StockRequest{ProductID: "1", Quantity: 12})
	require.NoError(t, err)

	d := svc.Reports.Warehouse(ctx)
	assert.Equal(t, 30, d.StockIn)
	assert.Equal(t, 12, d.StockOut)
	assert.Equal(t, 6, d.TotalProducts)
	require.Len(t, d.RecentMovements, 2)
	assert.Equal(t, models.MovementOut, d.RecentMovements[0].Type)
}

func TestFinanceReports(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	fin := svc.Reports.Finance(ctx)
	assert.Equal(t, 3900.0, fin.TotalCost)
	assert.InDelta(t, 1220.0/3685.0*100, fin.ProfitMargin, 1e-9)

	profit := svc.Reports.Profit(ctx)
	require.Len(t, profit.Orders, 3)
	assert.InDelta(t, 800.0/2640.0*100, profit.Orders[0].Margin, 1e-9)
	assert.Equal(t, fin.ProfitMargin, profit.AverageMargin)

	costing := svc.Reports.Costing(ctx)
	assert.Equal(t, 4000.0+240+1500+600+1200+32, costing.TotalStockValue)
	assert.InDelta(t, 100.0/3.0, costing.Products[0].Margin, 1e-9)
	assert.Equal(t, 4.0, costing.Products[0].ProfitPerUnit)
}

func TestFinanceReports_ZeroGuards(t *testing.T) {
	svc, s := newTestServices(t)
	ctx := context.Background()
	require.NoError(t, store.WriteList(ctx, s, store.SalesOrders, []models.SalesOrder{}))
	putProducts(t, s, models.Product{ID: "F", Code: "F", Name: "Free sample", Category: "Promo", Unit: "pcs", CostPrice: 1, CurrentStock: 3})

	assert.Zero(t, svc.Reports.Finance(ctx).ProfitMargin)
	assert.Zero(t, svc.Reports.Profit(ctx).AverageMargin)
	costing := svc.Reports.Costing(ctx)
	assert.Zero(t, costing.Products[0].Margin)
	assert.Equal(t, 3.0, costing.TotalStockValue)
}

func TestValuation(t *testing.T) {
	svc, _ := newTestServices(t)
	v := svc.Reports.Valuation(context.Background())

	require.Len(t, v.Categories, 5)
	assert.Equal(t, "Agriculture", v.Categories[0].CategoryName)
	assert.Equal(t, 4240.0, v.Categories[0].Subtotal)
	assert.Equal(t, 7572.0, v.GrandTotal)
}

func TestSalesReport(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	r, err := svc.Reports.SalesReport(ctx, "2024-12-01", "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalCount)
	assert.Equal(t, 1045.0, r.TotalRevenue)

	r, err = svc.Reports.SalesReport(ctx, "2024-12-10", "2024-12-10")
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalCount)

	_, err = svc.Reports.SalesReport(ctx, "2024-12-31", "2024-12-01")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Reports.SalesReport(ctx, "yesterday", "2024-12-01")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportSalesOrders(t *testing.T) {
	svc, _ := newTestServices(t)

	f, name, err := svc.Reports.ExportSalesOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sales_orders_20250310.xlsx", name)

	rows, err := f.GetRows("Sales Orders")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Order Number", rows[0][0])
	assert.Equal(t, "SO-2024-0001", rows[1][0])
	assert.Equal(t, "Completed", rows[1][4])
	assert.Equal(t, "Total", rows[4][0])
}

func TestImportProducts(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]any{
		{"Code", "Name", "Category", "Unit", "Cost Price", "Sale Price", "Current Stock", "Reorder Level"},
		{"CF-001", "Coffee Beans (Guji)", "Agriculture", "kg", 9, 14, 450, 100},
		{"HN-001", "Honey", "Agriculture", "kg", 5, 9, 40, 10},
		{"BAD-1", "Broken", "Misc", "pcs", "cheap", 2, 1, 1},
	}
	for i, row := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := svc.Catalog.ImportProducts(ctx, adminActor, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 4")

	p, err := svc.Catalog.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Coffee Beans (Guji)", p.Name)
	assert.Equal(t, 450, p.CurrentStock)

	_, err = svc.Catalog.ImportProducts(ctx, adminActor, bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
