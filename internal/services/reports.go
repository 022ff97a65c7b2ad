package services

import (
	"context"
	"sort"
	"time"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/shopspring/decimal"
)

const recentLimit = 5

// ReportService computes dashboards and finance reports from the stored collections.
type ReportService struct {
	*deps
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type MonthlyPoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
}

type TopSeller struct {
	ProductName string  `json:"product_name"`
	Sold        int     `json:"sold"`
	Revenue     float64 `json:"revenue"`
}

type AdminDashboard struct {
	TotalRevenue     float64        `json:"totalRevenue"`
	TotalProfit      float64        `json:"totalProfit"`
	TotalOrders      int            `json:"totalOrders"`
	ActiveUsers      int            `json:"activeUsers"`
	LowStockProducts int            `json:"lowStockProducts"`
	OrdersByStatus   []StatusCount  `json:"ordersByStatus"`
	Monthly          []MonthlyPoint `json:"monthly"`
	TopSelling       []TopSeller    `json:"topSelling"`
}

type ManagerDashboard struct {
	TotalRevenue     float64        `json:"totalRevenue"`
	TotalProfit      float64        `json:"totalProfit"`
	PendingSales     int            `json:"pendingSales"`
	PendingPurchases int            `json:"pendingPurchases"`
	LowStockProducts int            `json:"lowStockProducts"`
	OrdersByStatus   []StatusCount  `json:"ordersByStatus"`
	Monthly          []MonthlyPoint `json:"monthly"`
}

type SalesDashboard struct {
	TotalRevenue  float64             `json:"totalRevenue"`
	TotalProfit   float64             `json:"totalProfit"`
	TotalOrders   int                 `json:"totalOrders"`
	PendingOrders int                 `json:"pendingOrders"`
	RecentOrders  []models.SalesOrder `json:"recentOrders"`
}

type ProcurementDashboard struct {
	TotalSpend       float64                `json:"totalSpend"`
	TotalOrders      int                    `json:"totalOrders"`
	PendingOrders    int                    `json:"pendingOrders"`
	LowStockProducts int                    `json:"lowStockProducts"`
	LowStock         []models.Product       `json:"lowStock"`
	RecentOrders     []models.PurchaseOrder `json:"recentOrders"`
}

type WarehouseDashboard struct {
	StockIn          int                    `json:"stockIn"`
	StockOut         int                    `json:"stockOut"`
	TotalProducts    int                    `json:"totalProducts"`
	LowStockProducts int                    `json:"lowStockProducts"`
	RecentMovements  []models.StockMovement `json:"recentMovements"`
}

// FinanceSummary backs both the finance dashboard and the finance overview page.
type FinanceSummary struct {
	TotalRevenue float64        `json:"totalRevenue"`
	TotalProfit  float64        `json:"totalProfit"`
	TotalCost    float64        `json:"totalCost"`
	ProfitMargin float64        `json:"profitMargin"`
	Monthly      []MonthlyPoint `json:"monthly"`
}

type ProfitRow struct {
	OrderID      string             `json:"orderId"`
	OrderNumber  string             `json:"orderNumber"`
	CustomerName string             `json:"customerName"`
	OrderDate    string             `json:"orderDate"`
	Revenue      float64            `json:"revenue"`
	Profit       float64            `json:"profit"`
	Margin       float64            `json:"margin"`
	Status       models.SalesStatus `json:"status"`
}

type ProfitAnalysis struct {
	Orders        []ProfitRow `json:"orders"`
	TotalRevenue  float64     `json:"totalRevenue"`
	TotalProfit   float64     `json:"totalProfit"`
	AverageMargin float64     `json:"averageMargin"`
}

type CostingRow struct {
	ProductID     string  `json:"productId"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	CostPrice     float64 `json:"costPrice"`
	SalePrice     float64 `json:"salePrice"`
	ProfitPerUnit float64 `json:"profitPerUnit"`
	Margin        float64 `json:"margin"`
	StockValue    float64 `json:"stockValue"`
}

type CostingReport struct {
	Products        []CostingRow `json:"products"`
	TotalStockValue float64      `json:"totalStockValue"`
	AverageMargin   float64      `json:"averageMargin"`
}

// ValuationItem is one product row of the stock valuation
type ValuationItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	CostPrice float64 `json:"cost_price"`
	TotalCost float64 `json:"total_cost"`
}

// CategoryGroup is every product of one category
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal float64         `json:"grand_total"`
}

// SalesReportResult holds revenue within a date range
type SalesReportResult struct {
	Start        string      `json:"start"`
	End          string      `json:"end"`
	TotalRevenue float64     `json:"total_revenue"`
	TotalProfit  float64     `json:"total_profit"`
	TotalCount   int         `json:"total_count"`
	TopSelling   []TopSeller `json:"top_selling"`
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// percent returns part/whole*100, or 0 when whole is not positive.
func percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func sumSales(orders []models.SalesOrder) (revenue, profit decimal.Decimal) {
	revenue, profit = decimal.Zero, decimal.Zero
	for _, o := range orders {
		revenue = revenue.Add(dec(o.Total))
		profit = profit.Add(dec(o.Profit))
	}
	return revenue, profit
}

func sumPurchases(orders []models.PurchaseOrder) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(dec(o.Total))
	}
	return total
}

func countLowStock(products []models.Product) int {
	n := 0
	for _, p := range products {
		if p.IsLowStock() {
			n++
		}
	}
	return n
}

func salesStatusCounts(orders []models.SalesOrder) []StatusCount {
	counts := make([]StatusCount, len(models.SalesStatuses))
	for i, st := range models.SalesStatuses {
		counts[i].Status = string(st)
	}
	for _, o := range orders {
		if r := o.Status.Rank(); r >= 0 {
			counts[r].Count++
		}
	}
	return counts
}

// monthly groups revenue and profit by the month of orderDate, and purchase
// spend by the month of the purchase orderDate. Months come out in order.
func monthly(sales []models.SalesOrder, purchases []models.PurchaseOrder) []MonthlyPoint {
	type acc struct{ revenue, cost, profit decimal.Decimal }
	byMonth := map[string]*acc{}
	get := func(date string) *acc {
		t, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return nil
		}
		m := t.Format("2006-01")
		if byMonth[m] == nil {
			byMonth[m] = &acc{decimal.Zero, decimal.Zero, decimal.Zero}
		}
		return byMonth[m]
	}
	for _, o := range sales {
		if a := get(o.OrderDate); a != nil {
			a.revenue = a.revenue.Add(dec(o.Total))
			a.profit = a.profit.Add(dec(o.Profit))
		}
	}
	for _, o := range purchases {
		if a := get(o.OrderDate); a != nil {
			a.cost = a.cost.Add(dec(o.Total))
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]MonthlyPoint, 0, len(months))
	for _, m := range months {
		a := byMonth[m]
		out = append(out, MonthlyPoint{
			Month:   m,
			Revenue: a.revenue.InexactFloat64(),
			Cost:    a.cost.InexactFloat64(),
			Profit:  a.profit.InexactFloat64(),
		})
	}
	return out
}

// topSelling ranks products by units sold, at most limit entries.
func topSelling(orders []models.SalesOrder, limit int) []TopSeller {
	type acc struct {
		sold    int
		revenue decimal.Decimal
	}
	byName := map[string]*acc{}
	for _, o := range orders {
		for _, it := range o.Items {
			a := byName[it.ProductName]
			if a == nil {
				a = &acc{revenue: decimal.Zero}
				byName[it.ProductName] = a
			}
			a.sold += it.Quantity
			a.revenue = a.revenue.Add(decimal.NewFromInt(int64(it.Quantity)).Mul(dec(it.UnitPrice)))
		}
	}
	out := make([]TopSeller, 0, len(byName))
	for name, a := range byName {
		out = append(out, TopSeller{ProductName: name, Sold: a.sold, Revenue: a.revenue.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sold != out[j].Sold {
			return out[i].Sold > out[j].Sold
		}
		return out[i].ProductName < out[j].ProductName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func lastSales(orders []models.SalesOrder, n int) []models.SalesOrder {
	out := make([]models.SalesOrder, 0, n)
	for i := len(orders) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, orders[i])
	}
	return out
}

func lastPurchases(orders []models.PurchaseOrder, n int) []models.PurchaseOrder {
	out := make([]models.PurchaseOrder, 0, n)
	for i := len(orders) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, orders[i])
	}
	return out
}

func (s *ReportService) salesOrders(ctx context.Context) []models.SalesOrder {
	return store.ReadList[models.SalesOrder](ctx, s.store, store.SalesOrders, s.log)
}

func (s *ReportService) purchaseOrders(ctx context.Context) []models.PurchaseOrder {
	return store.ReadList[models.PurchaseOrder](ctx, s.store, store.PurchaseOrders, s.log)
}

func (s *ReportService) products(ctx context.Context) []models.Product {
	return store.ReadList[models.Product](ctx, s.store, store.Products, s.log)
}

func (s *ReportService) Admin(ctx context.Context) AdminDashboard {
	orders := s.salesOrders(ctx)
	users := store.ReadList[models.User](ctx, s.store, store.Users, s.log)
	revenue, profit := sumSales(orders)

	active := 0
	for _, u := range users {
		if u.Active {
			active++
		}
	}
	return AdminDashboard{
		TotalRevenue:     revenue.InexactFloat64(),
		TotalProfit:      profit.InexactFloat64(),
		TotalOrders:      len(orders),
		ActiveUsers:      active,
		LowStockProducts: countLowStock(s.products(ctx)),
		OrdersByStatus:   salesStatusCounts(orders),
		Monthly:          monthly(orders, nil),
		TopSelling:       topSelling(orders, 5),
	}
}

func (s *ReportService) Manager(ctx context.Context) ManagerDashboard {
	orders := s.salesOrders(ctx)
	purchases := s.purchaseOrders(ctx)
	revenue, profit := sumSales(orders)

	d := ManagerDashboard{
		TotalRevenue:     revenue.InexactFloat64(),
		TotalProfit:      profit.InexactFloat64(),
		LowStockProducts: countLowStock(s.products(ctx)),
		OrdersByStatus:   salesStatusCounts(orders),
		Monthly:          monthly(orders, purchases),
	}
	for _, o := range orders {
		if o.Status.Pending() {
			d.PendingSales++
		}
	}
	for _, o := range purchases {
		if o.Status.Pending() {
			d.PendingPurchases++
		}
	}
	return d
}

// Sales only counts orders created by the given name.
func (s *ReportService) Sales(ctx context.Context, createdBy string) SalesDashboard {
	mine := make([]models.SalesOrder, 0)
	if createdBy != "" {
		for _, o := range s.salesOrders(ctx) {
			if o.CreatedBy == createdBy {
				mine = append(mine, o)
			}
		}
	}
	revenue, profit := sumSales(mine)
	d := SalesDashboard{
		TotalRevenue: revenue.InexactFloat64(),
		TotalProfit:  profit.InexactFloat64(),
		TotalOrders:  len(mine),
		RecentOrders: lastSales(mine, recentLimit),
	}
	for _, o := range mine {
		if o.Status.Pending() {
			d.PendingOrders++
		}
	}
	return d
}

func (s *ReportService) Procurement(ctx context.Context) ProcurementDashboard {
	orders := s.purchaseOrders(ctx)
	products := s.products(ctx)

	low := make([]models.Product, 0)
	for _, p := range products {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	d := ProcurementDashboard{
		TotalSpend:       sumPurchases(orders).InexactFloat64(),
		TotalOrders:      len(orders),
		LowStockProducts: len(low),
		LowStock:         low,
		RecentOrders:     lastPurchases(orders, recentLimit),
	}
	for _, o := range orders {
		if o.Status.Pending() {
			d.PendingOrders++
		}
	}
	return d
}

func (s *ReportService) Warehouse(ctx context.Context) WarehouseDashboard {
	movements := store.ReadList[models.StockMovement](ctx, s.store, store.StockMovements, s.log)
	products := s.products(ctx)

	d := WarehouseDashboard{
		TotalProducts:    len(products),
		LowStockProducts: countLowStock(products),
		RecentMovements:  make([]models.StockMovement, 0, recentLimit),
	}
	for _, m := range movements {
		switch m.Type {
		case models.MovementIn:
			d.StockIn += m.Quantity
		case models.MovementOut:
			d.StockOut += m.Quantity
		}
	}
	for i := len(movements) - 1; i >= 0 && len(d.RecentMovements) < recentLimit; i-- {
		d.RecentMovements = append(d.RecentMovements, movements[i])
	}
	return d
}

func (s *ReportService) Finance(ctx context.Context) FinanceSummary {
	orders := s.salesOrders(ctx)
	purchases := s.purchaseOrders(ctx)
	revenue, profit := sumSales(orders)
	return FinanceSummary{
		TotalRevenue: revenue.InexactFloat64(),
		TotalProfit:  profit.InexactFloat64(),
		TotalCost:    sumPurchases(purchases).InexactFloat64(),
		ProfitMargin: percent(profit, revenue),
		Monthly:      monthly(orders, purchases),
	}
}

// Profit lists the margin of every sales order.
func (s *ReportService) Profit(ctx context.Context) ProfitAnalysis {
	orders := s.salesOrders(ctx)
	revenue, profit := sumSales(orders)
	rows := make([]ProfitRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, ProfitRow{
			OrderID:      o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerName: o.CustomerName,
			OrderDate:    o.OrderDate,
			Revenue:      o.Total,
			Profit:       o.Profit,
			Margin:       percent(dec(o.Profit), dec(o.Total)),
			Status:       o.Status,
		})
	}
	return ProfitAnalysis{
		Orders:        rows,
		TotalRevenue:  revenue.InexactFloat64(),
		TotalProfit:   profit.InexactFloat64(),
		AverageMargin: percent(profit, revenue),
	}
}

// Costing reports unit margins and stock value at cost. A product without a
// sale price counts as zero margin.
func (s *ReportService) Costing(ctx context.Context) CostingReport {
	products := s.products(ctx)
	rows := make([]CostingRow, 0, len(products))
	stockValue := decimal.Zero
	marginSum := decimal.Zero
	for _, p := range products {
		unitProfit := dec(p.SalePrice).Sub(dec(p.CostPrice))
		value := decimal.NewFromInt(int64(p.CurrentStock)).Mul(dec(p.CostPrice))
		margin := percent(unitProfit, dec(p.SalePrice))

		stockValue = stockValue.Add(value)
		marginSum = marginSum.Add(dec(margin))
		rows = append(rows, CostingRow{
			ProductID:     p.ID,
			Code:          p.Code,
			Name:          p.Name,
			Category:      p.Category,
			CostPrice:     p.CostPrice,
			SalePrice:     p.SalePrice,
			ProfitPerUnit: unitProfit.InexactFloat64(),
			Margin:        margin,
			StockValue:    value.InexactFloat64(),
		})
	}
	r := CostingReport{Products: rows, TotalStockValue: stockValue.InexactFloat64()}
	if len(products) > 0 {
		r.AverageMargin = marginSum.Div(decimal.NewFromInt(int64(len(products)))).InexactFloat64()
	}
	return r
}

// Valuation groups stock value at cost by category.
func (s *ReportService) Valuation(ctx context.Context) ValuationResponse {
	grandTotal := decimal.Zero
	subtotals := map[string]decimal.Decimal{}
	groupedMap := make(map[string]*CategoryGroup)

	for _, p := range s.products(ctx) {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}
		if _, exists := groupedMap[catName]; !exists {
			groupedMap[catName] = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}}
			subtotals[catName] = decimal.Zero
		}

		itemTotal := decimal.NewFromInt(int64(p.CurrentStock)).Mul(dec(p.CostPrice))
		groupedMap[catName].Items = append(groupedMap[catName].Items, ValuationItem{
			Name:      p.Name,
			Quantity:  p.CurrentStock,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal.InexactFloat64(),
		})
		subtotals[catName] = subtotals[catName].Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	response := ValuationResponse{Categories: []CategoryGroup{}, GrandTotal: grandTotal.InexactFloat64()}
	for name, group := range groupedMap {
		group.Subtotal = subtotals[name].InexactFloat64()
		response.Categories = append(response.Categories, *group)
	}
	sort.Slice(response.Categories, func(i, j int) bool {
		return response.Categories[i].CategoryName < response.Categories[j].CategoryName
	})
	return response
}

// SalesReport sums the sales orders dated within [start, end], both YYYY-MM-DD.
func (s *ReportService) SalesReport(ctx context.Context, start, end string) (*SalesReportResult, error) {
	from, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return nil, invalid("start date %q must be YYYY-MM-DD", start)
	}
	to, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return nil, invalid("end date %q must be YYYY-MM-DD", end)
	}
	if to.Before(from) {
		return nil, invalid("end date is before start date")
	}

	var inRange []models.SalesOrder
	for _, o := range s.salesOrders(ctx) {
		d, err := time.Parse(models.DateLayout, o.OrderDate)
		if err != nil || d.Before(from) || d.After(to) {
			continue
		}
		inRange = append(inRange, o)
	}
	revenue, profit := sumSales(inRange)
	return &SalesReportResult{
		Start:        start,
		End:          end,
		TotalRevenue: revenue.InexactFloat64(),
		TotalProfit:  profit.InexactFloat64(),
		TotalCount:   len(inRange),
		TopSelling:   topSelling(inRange, 5),
	}, nil
}
