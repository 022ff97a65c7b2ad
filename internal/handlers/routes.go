package handlers

import (
	"net/http"
	"strings"
	"time"

	"go-erp-agent/internal/access"
	"go-erp-agent/internal/auth"
	"go-erp-agent/internal/metrics"
	"go-erp-agent/internal/middleware"
	"go-erp-agent/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public endpoints and the /api group. Every /api
// route below the session check is tied to the page it serves.
func RegisterRoutes(r *gin.Engine, h *Handlers, sessions *auth.Manager, m *metrics.Metrics, redirectDelay time.Duration) {
	r.GET("/health", h.System.Health)
	r.GET("/version", h.System.Version)
	r.POST("/login", h.Auth.Login)
	r.GET("/api/system/status", h.System.Status)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	page := func(p string) gin.HandlerFunc { return middleware.RequirePage(p, redirectDelay) }

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(sessions))
	{
		api.POST("/logout", h.Auth.Logout)
		api.GET("/session", h.Auth.Session)
		api.GET("/menu", h.Auth.Menu)
		api.GET("/access", h.Auth.Access)

		api.GET("/dashboard/:role", middleware.RequirePageFunc(func(c *gin.Context) string {
			return access.Home(models.Role(c.Param("role")))
		}, redirectDelay), h.Reports.Dashboard)

		users := api.Group("/users", page(access.PageUsers))
		{
			users.GET("", h.Users.List)
			users.POST("", h.Users.Create)
			users.GET("/:id", h.Users.Get)
			users.PUT("/:id", h.Users.Update)
			users.DELETE("/:id", h.Users.Delete)
		}

		sales := api.Group("/sales-orders")
		{
			sales.GET("", page(access.PageSales), h.Orders.ListSales)
			sales.POST("", page(access.PageSalesCreate), h.Orders.CreateSales)
			sales.GET("/:id", page(access.PageSalesDetail), h.Orders.GetSales)
			sales.PUT("/:id/status", page(access.PageSalesDetail), h.Orders.SetSalesStatus)
			sales.POST("/:id/advance", page(access.PageSalesDetail), h.Orders.AdvanceSales)
		}

		customers := api.Group("/customers", page(access.PageSalesCustomers))
		{
			customers.GET("", h.Catalog.ListCustomers)
			customers.POST("", h.Catalog.CreateCustomer)
			customers.GET("/:id", h.Catalog.GetCustomer)
		}

		purchases := api.Group("/purchase-orders")
		{
			purchases.GET("", page(access.PageProcurement), h.Orders.ListPurchases)
			purchases.POST("", page(access.PageProcurementCreate), h.Orders.CreatePurchase)
			purchases.GET("/:id", page(access.PageProcurement), h.Orders.GetPurchase)
			purchases.PUT("/:id/status", page(access.PageProcurement), h.Orders.SetPurchaseStatus)
			purchases.POST("/:id/advance", page(access.PageProcurement), h.Orders.AdvancePurchase)
		}

		suppliers := api.Group("/suppliers", page(access.PageProcurementSuppliers))
		{
			suppliers.GET("", h.Catalog.ListSuppliers)
			suppliers.POST("", h.Catalog.CreateSupplier)
			suppliers.GET("/:id", h.Catalog.GetSupplier)
		}

		products := api.Group("/products")
		{
			products.GET("", page(access.PageInventory), h.Catalog.List)
			products.GET("/low-stock", page(access.PageInventory), h.Stock.LowStock)
			products.GET("/:id", page(access.PageInventory), h.Catalog.Get)
			products.POST("", page(access.PageInventoryManage), h.Catalog.Create)
			products.POST("/import", page(access.PageInventoryManage), h.Catalog.Import)
			products.PUT("/:id", page(access.PageInventoryManage), h.Catalog.Update)
			products.DELETE("/:id", page(access.PageInventoryManage), h.Catalog.Delete)
		}
		api.GET("/warehouses", page(access.PageInventory), h.Catalog.ListWarehouses)

		stock := api.Group("/stock")
		{
			stock.POST("/in", page(access.PageWarehouseStockIn), h.Stock.In)
			stock.POST("/out", page(access.PageWarehouseStockOut), h.Stock.Out)
			stock.GET("/movements", page(access.PageWarehouseMovements), h.Stock.Movements)
		}

		finance := api.Group("/finance")
		{
			finance.GET("", page(access.PageFinance), h.Reports.Finance)
			finance.GET("/profit", page(access.PageFinanceProfit), h.Reports.Profit)
			finance.GET("/costing", page(access.PageFinanceCosting), h.Reports.Costing)
		}

		reports := api.Group("/reports", page(access.PageReports))
		{
			reports.GET("/sales", h.Reports.SalesReport)
			reports.GET("/valuation", h.Reports.Valuation)
			reports.GET("/export", h.Reports.Export)
		}

		admin := api.Group("", page(access.PageSettings))
		{
			admin.GET("/settings", h.System.Settings)
			admin.GET("/audit", h.Reports.Audit)
		}

		api.POST("/ask", page(access.PageAssistant), h.AI.Ask)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File("./web/index.html")
	})
}
