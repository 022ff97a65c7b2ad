package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-erp-agent/internal/ai"
	"go-erp-agent/internal/auth"
	"go-erp-agent/internal/config"
	"go-erp-agent/internal/metrics"
	"go-erp-agent/internal/models"
	"go-erp-agent/internal/seed"
	"go-erp-agent/internal/services"
	"go-erp-agent/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Store: config.StoreConfig{Driver: "memory"},
		Auth: config.AuthConfig{
			JWTSecret:                 "test-secret",
			TokenTTL:                  time.Hour,
			RecheckInterval:           5 * time.Second,
			UnauthorizedRedirectDelay: 5 * time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "erp"},
		AI:      config.AIConfig{Model: "gemini-test"},
	}
	log := zap.NewNop()

	s := store.NewMemoryStore()
	data, err := seed.Default(bcrypt.MinCost)
	require.NoError(t, err)
	cols, err := data.Collections()
	require.NoError(t, err)
	_, err = store.Initialize(context.Background(), s, cols)
	require.NoError(t, err)

	m := metrics.New(cfg.Metrics)
	sessions := auth.NewManager(s, cfg.Auth, log, auth.WithMetrics(m))
	svc := services.NewServices(s, log,
		services.WithClock(func() time.Time { return testNow }),
		services.WithMetrics(m),
		services.WithBcryptCost(bcrypt.MinCost))
	agent := ai.NewAgent(svc, cfg.AI, log, m)

	r := gin.New()
	r.Use(m.Middleware())
	h := NewHandlers(svc, sessions, agent, cfg, log, BuildInfo{Version: "test", BuildTime: "now"})
	RegisterRoutes(r, h, sessions, m, cfg.Auth.UnauthorizedRedirectDelay)
	return &testServer{t: t, router: r, store: s}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(role string) string {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/login", "", gin.H{"username": role, "password": role + "123"})
	require.Equal(ts.t, http.StatusOK, w.Code, w.Body.String())
	token := gjson.Get(w.Body.String(), "token").String()
	require.NotEmpty(ts.t, token)
	return token
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/login", "", gin.H{"username": "sales", "password": "sales123"})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "sales", gjson.Get(body, "user.role").String())
	assert.Equal(t, "/dashboard/sales", gjson.Get(body, "home").String())
	assert.False(t, gjson.Get(body, "user.password").Exists())
	assert.Equal(t, "/sales/create", gjson.Get(body, `menu.#(label=="Create Order").href`).String())

	w = ts.do(http.MethodPost, "/login", "", gin.H{"username": "sales", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/login", "", gin.H{"username": "sales"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionAndLogout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("warehouse")

	w := ts.do(http.MethodGet, "/api/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), gjson.Get(w.Body.String(), "recheck_after").Int())
	assert.Equal(t, "Yonas Girma", gjson.Get(w.Body.String(), "user.name").String())

	w = ts.do(http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", gjson.Get(w.Body.String(), "redirect").String())
}

func TestSalesCannotOpenUserManagement(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("sales")

	w := ts.do(http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	body := w.Body.String()
	assert.Equal(t, "/unauthorized", gjson.Get(body, "redirect").String())
	assert.Equal(t, int64(5), gjson.Get(body, "redirect_after").Int())
	assert.False(t, gjson.Get(body, "0.username").Exists())

	w = ts.do(http.MethodDelete, "/api/users/1", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	users := store.ReadList[models.User](context.Background(), ts.store, store.Users, zap.NewNop())
	assert.Len(t, users, 6)

	w = ts.do(http.MethodGet, "/api/access?page=/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "allowed").Bool())
	assert.Equal(t, "/unauthorized", gjson.Get(w.Body.String(), "redirect").String())

	w = ts.do(http.MethodGet, "/api/access?page=/sales/create", token, nil)
	assert.True(t, gjson.Get(w.Body.String(), "allowed").Bool())
}

func TestUsersAdmin(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("admin")

	w := ts.do(http.MethodPost, "/api/users", token, gin.H{
		"username": "kidist", "password": "secret1", "name": "Kidist Tadesse", "email": "kidist@example.com", "role": "finance",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "id").String()

	w = ts.do(http.MethodPost, "/api/users", token, gin.H{"username": "kidist", "password": "x", "name": "Dup", "role": "finance"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/users?search=kidist", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "#").Int())

	w = ts.do(http.MethodDelete, "/api/users/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodGet, "/api/users/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalesOrderFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("sales")

	w := ts.do(http.MethodPost, "/api/sales-orders", token, gin.H{
		"customerId": "1",
		"items":      []gin.H{{"productId": "1", "quantity": 10}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, "SO-2025-0001", gjson.Get(body, "orderNumber").String())
	assert.Equal(t, 120.0, gjson.Get(body, "subtotal").Float())
	assert.Equal(t, 12.0, gjson.Get(body, "tax").Float())
	assert.Equal(t, 132.0, gjson.Get(body, "total").Float())
	assert.Equal(t, 40.0, gjson.Get(body, "profit").Float())
	assert.Equal(t, "draft", gjson.Get(body, "status").String())
	assert.Equal(t, "Dawit Haile", gjson.Get(body, "createdBy").String())
	id := gjson.Get(body, "id").String()

	w = ts.do(http.MethodPost, "/api/sales-orders/"+id+"/advance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", gjson.Get(w.Body.String(), "status").String())

	w = ts.do(http.MethodPut, "/api/sales-orders/"+id+"/status", token, gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/api/sales-orders/"+id+"/status", token, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodPost, "/api/sales-orders/"+id+"/advance", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(http.MethodGet, "/api/sales-orders?status=completed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "#").Int())

	w = ts.do(http.MethodGet, "/api/sales-orders/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, "/api/sales-orders", token, gin.H{"customerId": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseOrders(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("procurement")

	w := ts.do(http.MethodPost, "/api/purchase-orders", token, gin.H{
		"supplierId": "1",
		"items":      []gin.H{{"productId": "1", "quantity": 50}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "PO-2025-001", gjson.Get(w.Body.String(), "poNumber").String())
	assert.Equal(t, 400.0, gjson.Get(w.Body.String(), "total").Float())

	w = ts.do(http.MethodPost, "/api/purchase-orders/PO2/advance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "received", gjson.Get(w.Body.String(), "status").String())

	w = ts.do(http.MethodGet, "/api/sales-orders", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStockOutInsufficient(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("warehouse")

	w := ts.do(http.MethodPost, "/api/stock/out", token, gin.H{"productId": "6", "quantity": 9})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int64(8), gjson.Get(w.Body.String(), "available").Int())
	assert.Equal(t, "Not enough stock available. Current stock: 8", gjson.Get(w.Body.String(), "error").String())

	w = ts.do(http.MethodGet, "/api/stock/movements", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "#").Int())

	w = ts.do(http.MethodPost, "/api/stock/in", token, gin.H{"productId": "6", "quantity": 20})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Direct Entry", gjson.Get(w.Body.String(), "reference").String())

	w = ts.do(http.MethodPost, "/api/stock/out", token, gin.H{"productId": "6", "quantity": 9, "reference": "SO-2025-0001"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(http.MethodGet, "/api/products/6", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(19), gjson.Get(w.Body.String(), "currentStock").Int())

	w = ts.do(http.MethodGet, "/api/stock/movements?product_id=6", token, nil)
	assert.Equal(t, "out", gjson.Get(w.Body.String(), "0.type").String())
	assert.Equal(t, "in", gjson.Get(w.Body.String(), "1.type").String())

	sales := ts.login("sales")
	w = ts.do(http.MethodPost, "/api/stock/in", sales, gin.H{"productId": "6", "quantity": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProducts(t *testing.T) {
	ts := newTestServer(t)
	warehouse := ts.login("warehouse")
	sales := ts.login("sales")

	w := ts.do(http.MethodGet, "/api/products?search=coffee", sales, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CF-001", gjson.Get(w.Body.String(), "0.code").String())

	w = ts.do(http.MethodPut, "/api/products/1", sales, gin.H{"salePrice": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPut, "/api/products/1", warehouse, gin.H{"salePrice": 13.5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 13.5, gjson.Get(w.Body.String(), "product.salePrice").Float())
	assert.Equal(t, int64(500), gjson.Get(w.Body.String(), "product.currentStock").Int())

	w = ts.do(http.MethodGet, "/api/products/low-stock", sales, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "#").Int())

	finance := ts.login("finance")
	w = ts.do(http.MethodGet, "/api/products", finance, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDashboards(t *testing.T) {
	ts := newTestServer(t)

	for _, role := range []string{"admin", "manager", "sales", "procurement", "warehouse", "finance"} {
		token := ts.login(role)
		w := ts.do(http.MethodGet, "/api/dashboard/"+role, token, nil)
		assert.Equal(t, http.StatusOK, w.Code, role)
	}

	token := ts.login("sales")
	w := ts.do(http.MethodGet, "/api/dashboard/admin", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFinanceAndReports(t *testing.T) {
	ts := newTestServer(t)
	finance := ts.login("finance")
	admin := ts.login("admin")

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/finance/profit", finance, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/finance/costing", finance, nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/finance/profit", admin, nil).Code)

	w := ts.do(http.MethodGet, "/api/reports/sales?start=2024-12-01&end=2024-12-31", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "total_count").Int())

	w = ts.do(http.MethodGet, "/api/reports/sales?start=yesterday&end=2024-12-31", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/reports/valuation", finance, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "grand_total").Float() > 0)
}

func TestExportSalesOrders(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("manager")

	w := ts.do(http.MethodGet, "/api/reports/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sales_orders_20250310.xlsx")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Sales Orders", "A2")
	require.NoError(t, err)
	assert.Equal(t, "SO-2024-0001", v)
}

func TestAuditAndSettings(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login("admin")

	w := ts.do(http.MethodPost, "/api/products", admin, gin.H{
		"code": "HN-001", "name": "Tigray White Honey", "category": "Agriculture", "unit": "kg",
		"costPrice": 9, "salePrice": 15, "currentStock": 40, "reorderLevel": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(http.MethodGet, "/api/audit?limit=1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Abebe Kebede", gjson.Get(w.Body.String(), "0.actor").String())
	assert.Equal(t, "HN-001", gjson.Get(w.Body.String(), "0.detail").String())

	w = ts.do(http.MethodGet, "/api/audit?limit=x", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/settings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "memory", gjson.Get(w.Body.String(), "store_driver").String())
	assert.NotContains(t, w.Body.String(), "test-secret")

	manager := ts.login("manager")
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/settings", manager, nil).Code)
}

func TestAskWithoutKey(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login("admin")

	w := ts.do(http.MethodPost, "/api/ask", admin, gin.H{"message": "How much coffee is left?"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	sales := ts.login("sales")
	w = ts.do(http.MethodPost, "/api/ask", sales, gin.H{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPublicEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/version", "", nil)
	assert.Equal(t, "test", gjson.Get(w.Body.String(), "version").String())

	w = ts.do(http.MethodGet, "/api/system/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^ERP-`, gjson.Get(w.Body.String(), "instance_id").String())

	w = ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "erp_http_requests_total")

	w = ts.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"stock", &services.InsufficientStockError{ProductID: "1", Available: 2, Requested: 5}, http.StatusConflict},
		{"transition", services.ErrIllegalTransition, http.StatusConflict},
		{"invalid", fmt.Errorf("%w: quantity", services.ErrInvalidInput), http.StatusBadRequest},
		{"missing", services.ErrNotFound, http.StatusNotFound},
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"write contention", fmt.Errorf("%w: %w", store.ErrConflict, context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, gjson.Get(w.Body.String(), "error").String())
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, store.ErrConflict)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
