package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/jewelry_store/internal/config"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/handler"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/middleware"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/metrics"
)

// Handlers bundles the HTTP handlers mounted by the router
type Handlers struct {
	Products      *handler.ProductHandler
	Categories    *handler.CategoryHandler
	Cart          *handler.CartHandler
	Reviews       *handler.ReviewHandler
	Addresses     *handler.AddressHandler
	Notifications *handler.NotificationHandler
	Users         *handler.UserHandler
}

// Router holds HTTP handlers and router configuration
type Router struct {
	handlers Handlers
	logger   *logger.Logger
	cfg      *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(handlers Handlers, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   log,
		cfg:      cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(metrics.Middleware)
	if rt.cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(rt.cfg.Server.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	authenticate := middleware.Authenticate([]byte(rt.cfg.Auth.JWTSecret))
	h := rt.handlers

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{id}", h.Products.GetByID)
			r.Get("/{id}/reviews", h.Reviews.ListByProduct)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, middleware.RequireAdmin)
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Delete("/{id}", h.Products.Delete)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Categories.List)
			r.Get("/slug/{slug}", h.Categories.GetBySlug)
			r.Get("/{id}", h.Categories.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, middleware.RequireAdmin)
				r.Post("/", h.Categories.Create)
				r.Put("/{id}", h.Categories.Update)
				r.Delete("/{id}", h.Categories.Delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Cart.Get)
			r.Post("/", h.Cart.AddItem)
			r.Delete("/", h.Cart.Clear)
			r.Put("/{productId}", h.Cart.UpdateItem)
			r.Delete("/{productId}", h.Cart.RemoveItem)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/{id}", h.Reviews.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", h.Reviews.Create)
				r.Put("/{id}", h.Reviews.Update)
				r.Delete("/{id}", h.Reviews.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(authenticate, middleware.RequireAdmin)
				r.Get("/pending", h.Reviews.ListPending)
				r.Put("/{id}/status", h.Reviews.SetStatus)
			})
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Addresses.List)
			r.Post("/", h.Addresses.Create)
			r.Put("/{id}", h.Addresses.Update)
			r.Delete("/{id}", h.Addresses.Delete)
			r.Put("/{id}/default", h.Addresses.SetDefault)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Notifications.List)
			r.Delete("/", h.Notifications.DeleteAll)
			r.Get("/unread/count", h.Notifications.UnreadCount)
			r.Put("/read-all", h.Notifications.MarkAllRead)
			r.Put("/{id}/read", h.Notifications.MarkRead)
			r.Delete("/{id}", h.Notifications.Delete)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(authenticate, middleware.RequireAdmin)
			r.Get("/", h.Users.List)
			r.Delete("/{id}", h.Users.Delete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
