package handlers

import (
	"net/http"
	"time"

	"go-erp-agent/internal/config"
	"go-erp-agent/internal/utils"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	cfg        *config.Config
	build      BuildInfo
	instanceID string
	startedAt  time.Time
}

func newSystemHandler(cfg *config.Config, build BuildInfo) *SystemHandler {
	return &SystemHandler{cfg: cfg, build: build, instanceID: utils.InstanceID(), startedAt: time.Now()}
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

func (h *SystemHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}

// Status identifies this server instance for support.
func (h *SystemHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"instance_id": h.instanceID,
		"version":     h.build.Version,
		"store":       h.cfg.Store.Driver,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Settings shows the effective configuration without secrets.
func (h *SystemHandler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"store_driver":                h.cfg.Store.Driver,
		"database_driver":             h.cfg.Database.Driver,
		"strict_transitions":          h.cfg.Orders.StrictTransitions,
		"token_ttl":                   h.cfg.Auth.TokenTTL.String(),
		"recheck_interval":            h.cfg.Auth.RecheckInterval.String(),
		"unauthorized_redirect_delay": h.cfg.Auth.UnauthorizedRedirectDelay.String(),
		"log_level":                   h.cfg.Log.Level,
		"metrics_enabled":             h.cfg.Metrics.Enabled,
		"assistant_enabled":           h.cfg.AI.GeminiAPIKey != "",
		"assistant_model":             h.cfg.AI.Model,
	})
}
