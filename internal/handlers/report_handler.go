package handlers

import (
	"net/http"
	"strconv"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reports *services.ReportService
	audit   *services.AuditService
	log     *zap.Logger
}

// Dashboard serves /dashboard/:role. The page gate has already checked that
// the caller holds that role.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	switch models.Role(c.Param("role")) {
	case models.RoleAdmin:
		c.JSON(http.StatusOK, h.reports.Admin(ctx))
	case models.RoleManager:
		c.JSON(http.StatusOK, h.reports.Manager(ctx))
	case models.RoleSales:
		c.JSON(http.StatusOK, h.reports.Sales(ctx, actor(c).Name))
	case models.RoleProcurement:
		c.JSON(http.StatusOK, h.reports.Procurement(ctx))
	case models.RoleWarehouse:
		c.JSON(http.StatusOK, h.reports.Warehouse(ctx))
	case models.RoleFinance:
		c.JSON(http.StatusOK, h.reports.Finance(ctx))
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown dashboard"})
	}
}

func (h *ReportHandler) Finance(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.Finance(c.Request.Context()))
}

func (h *ReportHandler) Profit(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.Profit(c.Request.Context()))
}

func (h *ReportHandler) Costing(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.Costing(c.Request.Context()))
}

// Valuation is the stock value grouped by category.
func (h *ReportHandler) Valuation(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.Valuation(c.Request.Context()))
}

// SalesReport sums sales between ?start= and ?end= (YYYY-MM-DD).
func (h *ReportHandler) SalesReport(c *gin.Context) {
	res, err := h.reports.SalesReport(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Export downloads every sales order as an XLSX workbook.
func (h *ReportHandler) Export(c *gin.Context) {
	f, filename, err := h.reports.ExportSalesOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			h.log.Warn("close workbook", zap.Error(err))
		}
	}()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("write workbook", zap.Error(err))
	}
}

// Audit lists the newest audit entries, optionally for one ?entity=.
func (h *ReportHandler) Audit(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative number")
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.audit.List(c.Request.Context(), c.Query("entity"), limit))
}
