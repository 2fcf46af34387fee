package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "gocatalog/docs"
	"gocatalog/internal/api/brand"
	"gocatalog/internal/api/category"
	"gocatalog/internal/api/pricehistory"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/user"
	"gocatalog/internal/api/variant"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
	"gocatalog/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product      *product.Handler
	Variant      *variant.Handler
	PriceHistory *pricehistory.Handler
	Brand        *brand.Handler
	Category     *category.Handler
	User         *user.Handler
}

// Options agrupa a infraestrutura usada pelos middlewares globais.
type Options struct {
	Tokens          middleware.TokenService
	Cache           cache.Client
	Metrics         *metrics.Metrics
	Logger          logger.Logger
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()
	admin := middleware.NewAuthenticator(opts.Tokens, opts.Logger).Require(domain.RoleAdmin)

	// --- Infra ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /metrics", opts.Metrics.Handler())
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- Usuários ---
	mux.HandleFunc("POST /v1/users/register", h.User.RegisterUserHandler)
	mux.HandleFunc("POST /v1/users/login", h.User.LoginUserHandler)

	// --- Produtos ---
	mux.HandleFunc("GET /v1/statuses", h.Product.ListStatusesHandler)
	mux.HandleFunc("GET /v1/products", h.Product.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetProductHandler)
	mux.HandleFunc("POST /v1/products", admin(h.Product.CreateProductHandler))
	mux.HandleFunc("PUT /v1/products/{id}", admin(h.Product.UpdateProductHandler))
	mux.HandleFunc("PATCH /v1/products/{id}/price", admin(h.Product.UpdatePriceHandler))
	mux.HandleFunc("DELETE /v1/products/{id}", admin(h.Product.DeleteProductHandler))
	mux.HandleFunc("POST /v1/products/{id}/images", admin(h.Product.AddImageHandler))
	mux.HandleFunc("DELETE /v1/products/{id}/images/{imageId}", admin(h.Product.DeleteImageHandler))
	mux.HandleFunc("PUT /v1/products/{id}/attributes", admin(h.Product.ReplaceAttributesHandler))

	// --- Opções e variantes ---
	mux.HandleFunc("GET /v1/products/{id}/options", h.Variant.GetOptionsHandler)
	mux.HandleFunc("PUT /v1/products/{id}/options", admin(h.Variant.DefineOptionsHandler))
	mux.HandleFunc("GET /v1/products/{id}/variants", h.Variant.ListVariantsHandler)
	mux.HandleFunc("GET /v1/products/{id}/variants/default", h.Variant.GetDefaultVariantHandler)
	mux.HandleFunc("GET /v1/products/{id}/variants/summary", h.Variant.SummaryHandler)
	mux.HandleFunc("POST /v1/products/{id}/variants", admin(h.Variant.CreateVariantHandler))
	mux.HandleFunc("POST /v1/products/{id}/variants/bulk", admin(h.Variant.CreateVariantsBulkHandler))
	mux.HandleFunc("GET /v1/variants/{id}", h.Variant.GetVariantHandler)
	mux.HandleFunc("PUT /v1/variants/{id}", admin(h.Variant.UpdateVariantHandler))
	mux.HandleFunc("DELETE /v1/variants/{id}", admin(h.Variant.DeleteVariantHandler))
	mux.HandleFunc("PATCH /v1/variants/{id}/stock", admin(h.Variant.UpdateStockHandler))

	// --- Histórico de preços (somente leitura) ---
	mux.HandleFunc("GET /v1/products/{id}/price-history", h.PriceHistory.ProductHistoryHandler)
	mux.HandleFunc("GET /v1/variants/{id}/price-history", h.PriceHistory.VariantHistoryHandler)

	// --- Marcas ---
	mux.HandleFunc("GET /v1/brands", h.Brand.ListBrandsHandler)
	mux.HandleFunc("GET /v1/brands/{id}", h.Brand.GetBrandHandler)
	mux.HandleFunc("POST /v1/brands", admin(h.Brand.CreateBrandHandler))
	mux.HandleFunc("PUT /v1/brands/{id}", admin(h.Brand.UpdateBrandHandler))
	mux.HandleFunc("DELETE /v1/brands/{id}", admin(h.Brand.DeleteBrandHandler))

	// --- Categorias ---
	mux.HandleFunc("GET /v1/categories", h.Category.ListRootCategoriesHandler)
	mux.HandleFunc("GET /v1/categories/{id}", h.Category.GetCategoryHandler)
	mux.HandleFunc("POST /v1/categories", admin(h.Category.CreateCategoryHandler))
	mux.HandleFunc("PUT /v1/categories/{id}", admin(h.Category.UpdateCategoryHandler))
	mux.HandleFunc("DELETE /v1/categories/{id}", admin(h.Category.DeleteCategoryHandler))

	// Middlewares globais: observação por fora, rate limit por dentro.
	var handler http.Handler = mux
	if opts.Cache != nil && opts.RateLimit > 0 {
		handler = middleware.RateLimiter(opts.Cache, opts.RateLimit, opts.RateLimitWindow, opts.Logger)(handler)
	}
	return middleware.Observe(opts.Metrics, opts.Logger)(handler)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
