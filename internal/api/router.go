package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	mw "github.com/Neetrino/clean-house/internal/api/middleware"
	"github.com/Neetrino/clean-house/internal/auth"
	"github.com/Neetrino/clean-house/internal/models"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewHandlers(db *sql.DB, logger *slog.Logger) *Handlers {
	return &Handlers{db: db, logger: logger}
}

func NewRouter(h *Handlers, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := h.db.PingContext(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		respondMessage(w, http.StatusOK, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		// Public catalog
		r.Get("/products", h.ListProducts)
		r.Get("/products/featured", h.FeaturedProducts)
		r.Get("/products/search", h.SearchProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{slug}", h.GetCategory)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(jwtService))

			r.Get("/cart", h.GetCart)
			r.Post("/cart/add", h.AddToCart)
			r.Put("/cart/{itemId}", h.UpdateCartItem)
			r.Delete("/cart/{itemId}", h.RemoveFromCart)
			r.Delete("/cart", h.ClearCart)

			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Put("/orders/{id}/cancel", h.CancelOrder)

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(models.RoleAdmin))

				r.Put("/orders/{id}/status", h.UpdateOrderStatus)

				r.Post("/products", h.CreateProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)

				r.Get("/admin/dashboard", h.Dashboard)
				r.Get("/admin/recent-orders", h.RecentOrders)
				r.Get("/admin/top-products", h.TopProducts)
				r.Get("/admin/sales-report", h.SalesReport)
				r.Get("/admin/users", h.ListUsers)
			})
		})
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
