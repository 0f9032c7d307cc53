package http

import (
	"net/http"
	"time"

	_ "github.com/DRSN-tech/storefront/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// MetricsCollector — HTTP-метрики и их выдача.
type MetricsCollector interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// UseCases — всё, что нужно маршрутам.
type UseCases struct {
	Checkout  usecase.CheckoutUC
	Catalog   usecase.CatalogUC
	Products  usecase.ProductAdminUC
	Operators usecase.OperatorUC
}

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(uc UseCases, httpCfg *cfg.HTTPConfig, adminCfg *cfg.AdminCfg, maxImageSize int64,
	metrics MetricsCollector, checks map[string]HealthCheck) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(requestLogger(r.logger))
	r.router.Use(middleware.Recoverer)
	if metrics != nil {
		r.router.Use(metrics.Middleware)
		r.router.Handle("/metrics", metrics.Handler())
	}

	r.router.Get("/healthz", health(checks))
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(httpCfg.PublicBaseURL+"/swagger/doc.json"), // ссылка на JSON
	))

	storefront := NewStorefrontHandler(uc.Checkout, uc.Catalog, r.logger)
	r.router.Get("/images/{ref}", storefront.getImage)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.Timeout(requestTimeout(httpCfg)))
		registerStorefrontRoutes(v1, storefront)

		if adminCfg.Enabled() {
			admin := NewAdminHandler(uc.Products, uc.Operators, maxImageSize, r.logger)
			registerAdminRoutes(v1, admin, adminCfg.Token)
		} else {
			r.logger.Warnf("ADMIN_TOKEN is empty, admin routes are disabled")
		}
	})
}

func registerStorefrontRoutes(router chi.Router, h *StorefrontHandler) {
	router.Get("/products", h.listProducts)
	router.Route("/orders", func(or chi.Router) {
		or.Post("/", h.placeOrder)
		or.Get("/{id}", h.getOrder)
	})
}

func registerAdminRoutes(router chi.Router, h *AdminHandler, token string) {
	router.Route("/admin", func(ar chi.Router) {
		ar.Use(adminAuth(token))

		ar.Route("/products", func(pr chi.Router) {
			pr.Get("/", h.listProducts)
			pr.Post("/", h.createProduct)
			pr.Patch("/{id}", h.updateProduct)
			pr.Put("/{id}/image", h.setProductImage)
			pr.Delete("/{id}/image", h.clearProductImage)
		})

		ar.Get("/orders", h.listOrders)

		ar.Route("/operators", func(op chi.Router) {
			op.Get("/", h.listOperators)
			op.Post("/", h.registerOperator)
			op.Delete("/{chatID}", h.muteOperator)
		})
	})
}

func requestTimeout(httpCfg *cfg.HTTPConfig) time.Duration {
	if httpCfg.RequestTimeout > 0 {
		return httpCfg.RequestTimeout
	}

	return 15 * time.Second
}
