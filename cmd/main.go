package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"gocatalog/config"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
	"gocatalog/internal/pkg/telemetry"
	"gocatalog/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"gocatalog/internal/api/brand"
	"gocatalog/internal/api/category"
	"gocatalog/internal/api/pricehistory"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/router"
	"gocatalog/internal/api/user"
	"gocatalog/internal/api/variant"
	"gocatalog/internal/repository/brandrepo"
	"gocatalog/internal/repository/categoryrepo"
	"gocatalog/internal/repository/pricehistoryrepo"
	"gocatalog/internal/repository/productrepo"
	"gocatalog/internal/repository/queryrepo"
	"gocatalog/internal/repository/userrepo"
	"gocatalog/internal/repository/variantrepo"
	"gocatalog/internal/service/brandservice"
	"gocatalog/internal/service/categoryservice"
	"gocatalog/internal/service/pricehistoryservice"
	"gocatalog/internal/service/productservice"
	"gocatalog/internal/service/userservice"
	"gocatalog/internal/service/variantservice"
)

// @title GoCatalog API
// @version 1.0
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	log.Println("⚡ Inicializando serviço GoCatalog...")
	// Sem .env as variáveis vêm do ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	if z, ok := log.(*logger.ZapLogger); ok {
		defer z.Sync()
	}
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	// 1. Observabilidade
	m := metrics.New(cfg.MetricsPrefix)
	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("Falha ao inicializar o tracing.", err)
	}

	// 2. Conexão com Recursos de Infraestrutura
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		log.Warn("Redis indisponível; seguindo sem cache.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	} else {
		log.Info("Conexão Redis estabelecida.", nil)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log, m)
	variantRepo := variantrepo.NewVariantRepository(db, cfg.DBTimeout, log)
	historyRepo := pricehistoryrepo.NewPriceHistoryRepository(db, cfg.DBTimeout, log)
	queryRepo := queryrepo.NewQueryRepository(database.NewSqlx(db), cfg.DBTimeout, log)
	brandRepo := brandrepo.NewBrandRepository(db, cfg.DBTimeout, log)
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	recorder := pricehistoryservice.NewRecorder(m, log)

	productSvc := productservice.NewService(productRepo, queryRepo, brandRepo, categoryRepo, recorder, log, m, cfg.MaxPageSize)
	variantSvc := variantservice.NewService(variantRepo, queryRepo, recorder, log, m)
	historySvc := pricehistoryservice.NewService(historyRepo, log, cfg.MaxPageSize)
	brandSvc := brandservice.NewService(brandRepo, log, m)
	categorySvc := categoryservice.NewService(categoryRepo, log, m)
	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers e roteador
	handlers := router.Handlers{
		Product:      product.NewHandler(productSvc, log),
		Variant:      variant.NewHandler(variantSvc, log),
		PriceHistory: pricehistory.NewHandler(historySvc, log),
		Brand:        brand.NewHandler(brandSvc, log),
		Category:     category.NewHandler(categorySvc, log),
		User:         user.NewHandler(userSvc, log),
	}
	r := router.NewRouter(handlers, router.Options{
		Tokens:          tokenSvc,
		Cache:           cacheClient,
		Metrics:         m,
		Logger:          log,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitWindow: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoCatalog ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Error("Falha ao encerrar o tracing.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
