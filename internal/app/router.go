package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linemk/campuskart/internal/app/handlers"
	"github.com/linemk/campuskart/internal/lib/logger/handlers/urllog"
	"github.com/linemk/campuskart/internal/metrics"
	"github.com/linemk/campuskart/internal/notify"
	"github.com/linemk/campuskart/internal/service"
	"github.com/linemk/campuskart/internal/upload"
)

// RouterDeps собирает зависимости HTTP-слоя
type RouterDeps struct {
	Log      *slog.Logger
	Auth     service.AuthServiceInterface
	Products service.ProductServiceInterface
	Orders   service.OrderServiceInterface
	Contact  service.ContactServiceInterface
	Registry *notify.Registry
	Metrics  *metrics.Registry
	// JWT проверяет токен на защищённых маршрутах
	JWT          func(http.Handler) http.Handler
	Stream       handlers.StreamOptions
	UploadsDir   string
	MaxImageSize int64
}

func NewRouter(d RouterDeps) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(d.Log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// эндпоинты аутентификации
	router.Post("/api/auth/signup", handlers.SignupHandler(d.Log, d.Auth))
	router.Post("/api/auth/login", handlers.LoginHandler(d.Log, d.Auth))

	// объявления: чтение открыто, запись только с токеном
	router.Get("/api/products", handlers.ListProductsHandler(d.Log, d.Products))
	router.Get("/api/products/users/{userId}", handlers.UserProductsHandler(d.Log, d.Products))
	router.Get("/api/products/{id}", handlers.GetProductHandler(d.Log, d.Products))
	router.Group(func(r chi.Router) {
		r.Use(d.JWT)
		r.Post("/api/products", handlers.CreateProductHandler(d.Log, d.Products, d.MaxImageSize))
		r.Delete("/api/products/{id}", handlers.DeleteProductHandler(d.Log, d.Products))
	})

	// заказы
	router.Post("/api/orders", handlers.CreateOrderHandler(d.Log, d.Orders))
	router.Get("/api/orders/seller/{userId}", handlers.SellerOrdersHandler(d.Log, d.Orders))
	router.Patch("/api/orders/clear/{userId}", handlers.ClearNotificationsHandler(d.Log, d.Orders))
	router.Patch("/api/orders/{orderId}/read", handlers.MarkReadHandler(d.Log, d.Orders))
	router.Get("/api/orders/{userId}", handlers.UserOrdersHandler(d.Log, d.Orders))

	// поток уведомлений продавцу
	router.Get("/api/notifications/stream/{userId}", handlers.StreamHandler(d.Log, d.Registry, d.Metrics, d.Stream))

	router.Post("/api/contact-buyer", handlers.ContactBuyerHandler(d.Log, d.Contact))

	// картинки объявлений
	if d.UploadsDir != "" {
		router.Handle(upload.URLPrefix+"/*", http.StripPrefix(upload.URLPrefix+"/", http.FileServer(http.Dir(d.UploadsDir))))
	}

	router.Handle("/metrics", d.Metrics.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return router
}
