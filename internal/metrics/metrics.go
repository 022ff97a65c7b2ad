package metrics

import (
	"net/http"
	"strconv"
	"time"

	"go-erp-agent/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec

	loginCnt        *prometheus.CounterVec
	ordersCreated   *prometheus.CounterVec
	statusChanges   *prometheus.CounterVec
	stockMovements  *prometheus.CounterVec
	stockOutRejects prometheus.Counter
	aiToolCalls     *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: buckets}, []string{"method", "route", "status"})
	r.MustRegister(httpReqCnt, httpDur)

	loginCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "login_attempts_total"}, []string{"result"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "orders_created_total"}, []string{"kind"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "order_status_changes_total"}, []string{"kind", "status"})
	stockMovements := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "stock_movements_total"}, []string{"type"})
	stockOutRejects := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "stock_out_rejected_total"})
	aiToolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "ai_tool_calls_total"}, []string{"tool", "status"})
	r.MustRegister(loginCnt, ordersCreated, statusChanges, stockMovements, stockOutRejects, aiToolCalls)

	return &Metrics{
		registry:        r,
		httpReqCnt:      httpReqCnt,
		httpDur:         httpDur,
		loginCnt:        loginCnt,
		ordersCreated:   ordersCreated,
		statusChanges:   statusChanges,
		stockMovements:  stockMovements,
		stockOutRejects: stockOutRejects,
		aiToolCalls:     aiToolCalls,
	}
}

func (m *Metrics) LoginAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.loginCnt.WithLabelValues(result).Inc()
}

// OrderCreated counts a new order; kind is "sales" or "purchase".
func (m *Metrics) OrderCreated(kind string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) StatusChanged(kind, status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) StockMoved(movementType string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType).Inc()
}

func (m *Metrics) StockOutRejected() {
	if m == nil {
		return
	}
	m.stockOutRejects.Inc()
}

func (m *Metrics) ToolCalled(tool string, ok bool) {
	if m == nil {
		return
	}
	status := "error"
	if ok {
		status = "ok"
	}
	m.aiToolCalls.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
