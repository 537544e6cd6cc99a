package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quickorder/internal/auth"
	"quickorder/internal/cart"
	"quickorder/internal/catalog"
	"quickorder/internal/checkout"
	"quickorder/internal/config"
	"quickorder/internal/docstore"
	"quickorder/internal/metrics"
	"quickorder/internal/order"
	"quickorder/internal/session"
	"quickorder/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testApp struct {
	handler http.Handler
	docs    *docstore.MemoryStore
}

func newTestApp(t *testing.T, checks ...HealthCheck) *testApp {
	t.Helper()

	logger := zap.NewNop()
	store := storage.NewMemoryStore()
	docs := docstore.NewMemoryStore()
	m := metrics.New()

	provider, authCtrl := auth.NewModule(store, config.AuthConfig{
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		AdminEmails: []string{"admin@example.com"},
	}, m, logger)
	sessionMW, sessionCtrl := session.NewModule(store, provider, logger)
	orderModule := order.NewModule(store, m, logger)
	cartSvc, cartCtrl := cart.NewModule(store, orderModule.Repository, config.CartConfig{
		MaxAge:     24 * time.Hour,
		UndoWindow: 5 * time.Second,
	}, m, logger)
	checkoutCtrl := checkout.NewModule(cartSvc, orderModule.Repository, docs, store, config.PaymentConfig{StepScale: 0}, m, logger)

	handler := NewRouter(Deps{
		Session:      sessionMW,
		SessionCtrl:  sessionCtrl,
		Auth:         authCtrl,
		Catalog:      catalog.NewModule(docs, m, logger),
		Cart:         cartCtrl,
		Checkout:     checkoutCtrl,
		Orders:       orderModule,
		Metrics:      m,
		HealthChecks: checks,
	}, logger)

	return &testApp{handler: handler, docs: docs}
}

type client struct {
	t     *testing.T
	app   *testApp
	id    string
	token string
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a, id: uuid.NewString()}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	c.sign(req)

	rec := httptest.NewRecorder()
	c.app.handler.ServeHTTP(rec, req)
	return rec
}

func (c *client) form(path string, fields map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.sign(req)

	rec := httptest.NewRecorder()
	c.app.handler.ServeHTTP(rec, req)
	return rec
}

func (c *client) sign(req *http.Request) {
	req.Header.Set(session.HeaderClientID, c.id)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *client) register(email string) {
	c.t.Helper()

	rec := c.do(http.MethodPost, "/api/auth/register", map[string]any{
		"firstName":       "Ana",
		"lastName":        "Reyes",
		"email":           email,
		"password":        "secret123",
		"confirmPassword": "secret123",
		"agreeTerms":      true,
	})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(c.t, res.Token)
	c.token = res.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		app := newTestApp(t, HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }})
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode[healthResponse](t, rec)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Checks["redis"])
	})

	t.Run("degraded", func(t *testing.T) {
		app := newTestApp(t, HealthCheck{Name: "mysql", Check: func(context.Context) error { return errors.New("connection refused") }})
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode[healthResponse](t, rec)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "connection refused", body.Checks["mysql"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.do(http.MethodGet, "/api/products", nil)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quickorder_catalog_fallbacks_total 1")
}

func TestSession_MintsClientCookie(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	clientID := rec.Header().Get(session.HeaderClientID)
	_, err := uuid.Parse(clientID)
	assert.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, clientID, cookies[0].Value)
}

func TestProducts_FallbackMenu(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	rec := c.do(http.MethodGet, "/api/products?category=drinks", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[catalog.Listing](t, rec)
	assert.Equal(t, catalog.SourceFallback, body.Source)
	assert.Len(t, body.Products, 2)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	app := newTestApp(t)

	anon := app.client(t)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/admin/stats", nil).Code)

	customer := app.client(t)
	customer.register("ana@example.com")
	assert.Equal(t, http.StatusForbidden, customer.do(http.MethodGet, "/api/admin/stats", nil).Code)

	admin := app.client(t)
	admin.register("admin@example.com")
	assert.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/api/admin/stats", nil).Code)
}

func TestAdminProductExport(t *testing.T) {
	app := newTestApp(t)

	anon := app.client(t)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/admin/products/export", nil).Code)

	customer := app.client(t)
	customer.register("ana@example.com")
	assert.Equal(t, http.StatusForbidden, customer.do(http.MethodGet, "/api/admin/products/export", nil).Code)

	admin := app.client(t)
	admin.register("admin@example.com")

	// An empty collection exports as an empty file even though the menu
	// falls back to the built-in products.
	rec := admin.do(http.MethodGet, "/api/admin/products/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]any](t, rec))

	rec = admin.do(http.MethodPost, "/api/admin/products", map[string]any{"name": "Sisig", "price": 9.5, "category": "mains"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]any](t, rec)

	rec = admin.do(http.MethodGet, "/api/admin/products/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="products-export.json"`, rec.Header().Get("Content-Disposition"))
	exported := decode[[]map[string]any](t, rec)
	require.Len(t, exported, 1)
	assert.Equal(t, created["id"], exported[0]["id"])
	assert.Equal(t, "Sisig", exported[0]["name"])
	assert.Equal(t, "pending", exported[0]["status"])
}

func TestCart_RemoveAndUndo(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	rec := c.do(http.MethodPost, "/api/cart/items", map[string]any{"name": "Classic Burger", "price": 8.99})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodDelete, "/api/cart/items/Classic%20Burger", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decode[cart.MutationResult](t, rec)
	require.NotEmpty(t, removed.UndoToken)
	assert.Empty(t, removed.Cart.Items)

	rec = c.do(http.MethodPost, "/api/cart/undo/"+removed.UndoToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	restored := decode[cart.MutationResult](t, rec)
	require.Len(t, restored.Cart.Items, 1)
	assert.Equal(t, "Classic Burger", restored.Cart.Items[0].Name)

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/api/cart/undo/"+removed.UndoToken, nil).Code)
}

func TestCheckoutToCancellationNotice(t *testing.T) {
	app := newTestApp(t)

	customer := app.client(t)
	admin := app.client(t)
	admin.register("admin@example.com")

	for i := 0; i < 2; i++ {
		rec := customer.do(http.MethodPost, "/api/cart/items", map[string]any{"name": "Margherita Pizza", "price": 12.99})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := customer.do(http.MethodPost, "/api/checkout/start", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	customer.register("ana@example.com")
	rec = customer.do(http.MethodPost, "/api/checkout/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = customer.form("/api/checkout", map[string]string{
		"paymentMethod":   "cod",
		"deliveryAddress": "12 Rizal St",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[checkout.Result](t, rec)
	orderNumber := placed.Order.OrderNumber
	assert.InDelta(t, 28.0584, placed.Order.Total, 1e-9)

	mirrored, err := app.docs.List(context.Background(), docstore.CollectionOrders)
	require.NoError(t, err)
	assert.Len(t, mirrored, 1)

	cartView := decode[cart.View](t, customer.do(http.MethodGet, "/api/cart", nil))
	assert.Empty(t, cartView.Items)

	history := decode[struct {
		Orders []struct {
			OrderNumber string `json:"orderNumber"`
			StatusLabel string `json:"statusLabel"`
		} `json:"orders"`
	}](t, customer.do(http.MethodGet, "/api/orders", nil))
	require.Len(t, history.Orders, 1)
	assert.Equal(t, orderNumber, history.Orders[0].OrderNumber)
	assert.Equal(t, "Pending", history.Orders[0].StatusLabel)

	rec = admin.do(http.MethodPatch, "/api/admin/orders/"+orderNumber+"/status", map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = admin.do(http.MethodPatch, "/api/admin/orders/"+orderNumber+"/status", map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	type notices struct {
		Notices []struct {
			OrderNumber string `json:"orderNumber"`
			Message     string `json:"message"`
		} `json:"notices"`
	}
	first := decode[notices](t, customer.do(http.MethodGet, "/api/orders/notices", nil))
	require.Len(t, first.Notices, 1)
	assert.Equal(t, "Order #"+orderNumber+" has been cancelled by admin.", first.Notices[0].Message)

	second := decode[notices](t, customer.do(http.MethodGet, "/api/orders/notices", nil))
	assert.Empty(t, second.Notices)

	rec = customer.do(http.MethodPost, "/api/orders/"+orderNumber+"/reorder", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reordered := decode[cart.MutationResult](t, rec)
	require.Len(t, reordered.Cart.Items, 1)
	assert.Equal(t, 2, reordered.Cart.Items[0].Quantity)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	rec := c.form("/api/checkout", map[string]string{"paymentMethod": "cod", "deliveryAddress": "12 Rizal St"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart empty")
	assert.Empty(t, decode[struct {
		Orders []any `json:"orders"`
	}](t, c.do(http.MethodGet, "/api/orders", nil)).Orders)
}
