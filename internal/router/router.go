package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/sabor-pos/api/internal/config"
	"github.com/sabor-pos/api/internal/gateway/postgres"
	"github.com/sabor-pos/api/internal/handler"
	"github.com/sabor-pos/api/internal/logging"
	"github.com/sabor-pos/api/internal/order"
	"github.com/sabor-pos/api/internal/service"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, logger zerolog.Logger, store *postgres.Store) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger{Logger: logger}.Middleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	productHandler := handler.NewProductHandler(store)
	r.Route("/products", productHandler.RegisterRoutes)

	clipboard := order.NewExtrasClipboard()
	orderService := service.NewOrderService(store, clipboard)
	orderHandler := handler.NewOrderHandler(orderService, store)
	r.Route("/orders", orderHandler.RegisterRoutes)

	return r
}
