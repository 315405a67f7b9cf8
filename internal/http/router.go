package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	JWTSecret          []byte
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	AllowedOrigins     []string
}

type Handlers struct {
	Cart     *CartHandler
	Orders   *OrdersHandler
	Products *ProductsHandler
	Events   *EventsHandler
	Health   http.HandlerFunc
}

func NewRouter(cfg RouterConfig, h Handlers, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	// long-lived; kept outside the timeout and compression middleware
	r.Get("/ws/orders", h.Events.ServeWS)

	auth := AuthMiddleware(cfg.JWTSecret)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(middleware.Compress(5))
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Products.ListProducts)
				r.Get("/{id}", h.Products.GetProduct)
				r.With(auth, AdminOnly).Post("/", h.Products.CreateProduct)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", h.Cart.GetCart)
					r.Post("/", h.Cart.AddItem)
					r.Put("/", h.Cart.UpdateQuantity)
					r.Delete("/{product_id}", h.Cart.RemoveItem)
				})

				r.Route("/orders", func(r chi.Router) {
					r.Post("/", h.Orders.PlaceOrder)
					r.Get("/", h.Orders.ListOrders)
					r.Get("/{order_id}", h.Orders.GetOrder)
					r.With(AdminOnly).Put("/{order_id}", h.Orders.UpdateStatus)
				})
			})
		})
	})

	return otelhttp.NewHandler(r, "shop-api")
}
