// Package httpapi exposes the shop over JSON/HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/safar/go-shop/internal/auth"
	"github.com/safar/go-shop/internal/config"
	"github.com/safar/go-shop/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	catalog  *service.Catalog
	cart     *service.Cart
	orders   *service.Orders
	accounts *service.Accounts

	store     Pinger
	storeName string
	logger    *slog.Logger
	now       func() time.Time
}

type Services struct {
	Catalog  *service.Catalog
	Cart     *service.Cart
	Orders   *service.Orders
	Accounts *service.Accounts
}

func NewHandler(svc Services, store Pinger, storeName string, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:   svc.Catalog,
		cart:      svc.Cart,
		orders:    svc.Orders,
		accounts:  svc.Accounts,
		store:     store,
		storeName: storeName,
		logger:    logger,
		now:       time.Now,
	}
}

// Router wires the routes and the middleware stack.
func (h *Handler) Router(cfg config.ServerConfig, verifier auth.Verifier) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(cfg.MaxBodyBytes))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	requireAuth := auth.Require(verifier)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.With(requireAuth).Get("/me", h.me)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/export", h.exportProducts)
			r.Post("/", h.createProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
		})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.getCart)
		r.Post("/add", h.addToCart)
		r.Put("/update", h.updateCart)
		r.Delete("/remove/{productId}", h.removeFromCart)
		r.Delete("/clear", h.clearCart)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.placeOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/status", h.updateOrderStatus)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "store ping failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]string{
		"status":    status,
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"store":     h.storeName,
	})
}

// pathID parses a positive int64 URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// identity is only called behind auth.Require.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			if reqID != "" {
				w.Header().Set(middleware.RequestIDHeader, reqID)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
