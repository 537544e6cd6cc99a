package server

import (
	"context"
	"net/http"
	"time"

	"quickorder/internal/auth"
	"quickorder/internal/cart"
	"quickorder/internal/catalog"
	"quickorder/internal/checkout"
	"quickorder/internal/httpx"
	"quickorder/internal/metrics"
	"quickorder/internal/order"
	"quickorder/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const requestTimeout = 20 * time.Second

// HealthCheck reports whether one backing service is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Session      *session.Middleware
	SessionCtrl  *session.Controller
	Auth         *auth.Controller
	Catalog      *catalog.Controller
	Cart         *cart.Controller
	Checkout     *checkout.Controller
	Orders       *order.Module
	Metrics      *metrics.Metrics
	HealthChecks []HealthCheck
}

func NewRouter(d Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", healthHandler(d.HealthChecks, logger))
	r.Handle("/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(d.Session.Handler)

		r.Get("/session", d.SessionCtrl.GetSession)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.Auth.Register)
			r.Post("/signin", d.Auth.SignIn)
			r.Post("/password-reset", d.Auth.PasswordReset)
			r.Post("/signout", d.Auth.SignOut)
		})

		r.Get("/products", d.Catalog.ListProducts)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", d.Cart.GetCart)
			r.Delete("/", d.Cart.ClearCart)
			r.Post("/items", d.Cart.AddItem)
			r.Patch("/items/{name}", d.Cart.UpdateQuantity)
			r.Delete("/items/{name}", d.Cart.RemoveItem)
			r.Post("/undo/{token}", d.Cart.UndoRemove)
		})

		r.Post("/checkout/start", d.Checkout.Start)
		r.Post("/checkout", d.Checkout.PlaceOrder)

		r.Get("/orders", d.Orders.Orders.ListOrders)
		r.Delete("/orders", d.Orders.Orders.ClearHistory)
		r.Get("/orders/notices", d.Orders.Orders.Notices)
		r.Post("/orders/{orderNumber}/reorder", d.Cart.Reorder)
		r.Get("/receipt", d.Orders.Orders.Receipt)

		r.Route("/admin", func(r chi.Router) {
			r.Use(d.Session.RequireAdmin)
			r.Post("/products", d.Catalog.SubmitProduct)
			r.Get("/products/export", d.Catalog.ExportProducts)
			r.Get("/orders", d.Orders.Admin.ListOrders)
			r.Patch("/orders/{orderNumber}/status", d.Orders.Admin.UpdateStatus)
			r.Get("/stats", d.Orders.Admin.Stats)
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks []HealthCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Warn("health check failed", zap.String("check", c.Name), zap.Error(err))
				resp.Checks[c.Name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		httpx.WriteJSON(w, logger, status, resp)
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
