package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gocatalog/internal/api/category"
	"gocatalog/internal/api/product"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

// RateLimit configura o limitador aplicado às rotas /v1. MaxRequests zero o desliga.
type RateLimit struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
// Leituras são públicas; mutações exigem JWT com papel admin ou editor.
func NewRouter(
	categoryHandler *category.Handler,
	productHandler *product.Handler,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	limits RateLimit,
	log logger.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Get("/ping", PingHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	writers := chi.Chain(
		middleware.NewAuthMiddleware(tokenSvc, log),
		middleware.PermissionMiddleware(log, domain.WriterRoles...),
	)

	r.Route("/v1", func(r chi.Router) {
		if limits.MaxRequests > 0 {
			r.Use(middleware.RateLimiter(cacheClient, limits.MaxRequests, limits.Period, log))
		}

		r.Route("/categories", func(r chi.Router) {
			r.Get("/tree", categoryHandler.GetCategoryTreeHandler)
			r.Get("/by-slug", categoryHandler.GetCategoryBySlugHandler)
			r.Get("/export", categoryHandler.ExportCategoriesHandler)
			r.Get("/{id}", categoryHandler.GetCategoryHandler)
			r.Get("/{id}/children", categoryHandler.GetChildrenHandler)
			r.Get("/{id}/descendants", categoryHandler.GetDescendantsHandler)
			r.Get("/{id}/breadcrumbs", categoryHandler.GetBreadcrumbsHandler)

			r.With(writers...).Post("/", categoryHandler.CreateCategoryHandler)
			r.With(writers...).Post("/import", categoryHandler.ImportCategoriesHandler)
			r.With(writers...).Put("/{id}", categoryHandler.UpdateCategoryHandler)
			r.With(writers...).Put("/{id}/children/order", categoryHandler.ReorderChildrenHandler)
			r.With(writers...).Delete("/{id}", categoryHandler.DeleteCategoryHandler)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/search", productHandler.SearchProductsHandler)
			r.Get("/by-slug", productHandler.GetProductBySlugHandler)
			r.Get("/{id}", productHandler.GetProductByIDHandler)

			r.With(writers...).Post("/", productHandler.CreateProductHandler)
			r.With(writers...).Put("/{id}", productHandler.UpdateProductHandler)
			r.With(writers...).Delete("/{id}", productHandler.DeleteProductHandler)
		})
	})

	return r
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
