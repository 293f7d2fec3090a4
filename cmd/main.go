// @title GoCatalog API
// @version 1.0
// @description Hierarquia de categorias e catálogo de produtos.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	"gocatalog/config"
	_ "gocatalog/docs"
	"gocatalog/internal/api/category"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/router"
	"gocatalog/internal/event"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/token"
	"gocatalog/internal/registry"
	"gocatalog/internal/repository/categoryrepo"
	"gocatalog/internal/repository/memstore"
	"gocatalog/internal/repository/productrepo"
	"gocatalog/internal/service/categoryservice"
	"gocatalog/internal/service/productservice"
)

func main() {
	// O .env é opcional: em containers as variáveis vêm do ambiente.
	if err := godotenv.Load(); err != nil {
		log.Println("Aviso: arquivo .env não encontrado. Usando apenas variáveis do ambiente.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Erro de configuração: %v", err)
	}

	appLog := logger.NewLogger(cfg.LogLevel)
	if s, ok := appLog.(interface{ Sync() error }); ok {
		defer s.Sync()
	}
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "storage": cfg.StorageBackend})

	ctx := context.Background()

	// 1. Cache (Redis). Sem REDIS_ADDR o serviço roda sem cache.
	var cacheClient cache.Client = cache.NoopClient{}
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			appLog.Fatal("Falha ao conectar ao Redis.", err)
		}
		defer redisClient.Close()
		cacheClient = redisClient
		appLog.Info("Conexão Redis estabelecida.", nil)
	}

	// 2. Eventos (Kafka)
	var publisher event.Publisher = event.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, appLog)
		appLog.Info("Publisher Kafka configurado.", map[string]interface{}{"brokers": cfg.KafkaBrokers})
	}
	defer publisher.Close()

	// 3. Repositórios
	var (
		categoryRepo categoryservice.CategoryRepository
		productRepo  productservice.ProductRepository
	)
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.PoolConfig{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
		if err != nil {
			appLog.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		defer db.Close()
		appLog.Info("Conexão PostgreSQL estabelecida.", nil)

		categoryRepo = categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, appLog)
		productRepo = productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	default:
		reg := registry.New(registry.NewMemoryBackend())
		categories := memstore.NewCategoryStore(reg)
		categoryRepo = categories
		productRepo = memstore.NewProductStore(reg, categories)
		appLog.Warn("Armazenamento em memória: os dados não sobrevivem ao processo.", nil)
	}

	// 4. Serviços e Handlers
	categorySvc := categoryservice.NewService(categoryRepo, cacheClient, publisher, appLog, cfg.CacheTTL)
	productSvc := productservice.NewService(productRepo, publisher, appLog, productservice.SearchLimits{
		Default: cfg.SearchDefaultLimit,
		Max:     cfg.SearchMaxLimit,
	})
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	r := router.NewRouter(
		category.NewHandler(categorySvc, appLog),
		product.NewHandler(productSvc, appLog),
		tokenSvc,
		cacheClient,
		router.RateLimit{MaxRequests: cfg.RateLimitMaxRequests, Period: cfg.RateLimitPeriod},
		appLog,
	)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor GoCatalog ouvindo.", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
