package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DimasB1221/I-commerce/internal/cache"
	"github.com/DimasB1221/I-commerce/internal/config"
	"github.com/DimasB1221/I-commerce/internal/health"
	shophttp "github.com/DimasB1221/I-commerce/internal/http"
	"github.com/DimasB1221/I-commerce/internal/notify"
	"github.com/DimasB1221/I-commerce/internal/repository"
	"github.com/DimasB1221/I-commerce/internal/service"
	"github.com/DimasB1221/I-commerce/internal/telemetry"
	"github.com/DimasB1221/I-commerce/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	serviceName         = "shop-api"
	healthCheckInterval = 15 * time.Second
)

// stores groups the repositories chosen by STORAGE with their health checks
// and the functions that release them on shutdown.
type stores struct {
	carts    repository.CartRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	checks   health.Checks
	closers  []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize tracing")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("Redis connection failed")
		}
		log.WithField("addr", cfg.RedisAddr).Info("Redis ping succeeded")
		st.checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		st.closers = append(st.closers, func() { _ = redisClient.Close() })
	}

	var cartCache cache.CartCache = cache.NoopCache{}
	if cfg.Storage == config.StorageExternal && cfg.CartCacheEnabled {
		cartCache = cache.NewRedisCache(redisClient, cfg.CartCacheTTL)
	}

	hub := notify.NewHub(log, notify.DefaultListenerBuffer)
	hub.Init()

	broadcaster, stopNotify, err := startNotify(ctx, cfg, hub, redisClient, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to start order notifications")
	}

	products := service.NewProductService(st.products, log)
	carts := service.NewCartService(st.carts, products, cartCache, log)
	orders := service.NewOrderService(st.orders, carts, products, notify.NewNotifier(broadcaster, log), log)

	handler := shophttp.NewRouter(shophttp.RouterConfig{
		JWTSecret:          []byte(cfg.JWTSecret),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
	}, shophttp.Handlers{
		Cart:     shophttp.NewCartHandler(carts, log),
		Orders:   shophttp.NewOrdersHandler(orders, log),
		Products: shophttp.NewProductsHandler(products, log),
		Events:   shophttp.NewEventsHandler(hub, cfg.CORSAllowedOrigins, log),
		Health:   shophttp.HealthHandler(st.checks, time.Now()),
	}, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	healthServer := health.NewServer(serviceName, st.checks, log)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCHealthPort))
	if err != nil {
		log.WithError(err).Fatal("Failed to listen for grpc health")
	}
	go healthServer.Watch(ctx, healthCheckInterval)
	go func() {
		log.WithField("port", cfg.GRPCHealthPort).Info("gRPC health server listening")
		if err := healthServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC health server stopped")
		}
	}()

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to serve")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down shop api...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	healthServer.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server forced to shutdown")
	}
	stop()
	stopNotify()
	for i := len(st.closers) - 1; i >= 0; i-- {
		st.closers[i]()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("Failed to flush traces")
	}
	log.Info("Shop api stopped")
}

func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("Using in-memory storage; data is lost on restart")
		return &stores{
			carts:    repository.NewMemoryCartRepository(),
			orders:   repository.NewMemoryOrderRepository(),
			products: repository.NewMemoryProductRepository(),
			checks:   health.Checks{},
		}, nil
	}

	st := &stores{checks: health.Checks{}}

	mongoStore, err := repository.OpenMongoStore(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, fmt.Errorf("mongodb: %w", err)
	}
	st.closers = append(st.closers, func() { _ = mongoStore.Close() })
	cartRepo := repository.NewMongoCartRepository(mongoStore.DB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongodb indexes: %w", err)
	}
	st.carts = cartRepo
	st.checks["mongodb"] = mongoStore.Ping
	log.WithField("uri", cfg.MongoURI).Info("Connected to MongoDB")

	cred := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.OrdersMigrationsPath,
	}
	orderRepo, err := repository.NewPostgresOrderRepository(cred)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	st.closers = append(st.closers, func() { _ = orderRepo.Close() })
	if err := orderRepo.RunMigrations(cred); err != nil {
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	st.orders = orderRepo
	st.checks["postgres"] = orderRepo.Ping
	log.WithField("host", cfg.DBHost).Info("Connected to PostgreSQL")

	productRepo, err := repository.NewSQLiteProductRepository(cfg.ProductsDBPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	st.closers = append(st.closers, func() { _ = productRepo.Close() })
	if err := productRepo.RunMigrations(cfg.ProductsMigrationsPath); err != nil {
		return nil, fmt.Errorf("sqlite migrations: %w", err)
	}
	st.products = productRepo
	st.checks["sqlite"] = productRepo.Ping
	log.WithField("path", cfg.ProductsDBPath).Info("Opened product catalog")

	return st, nil
}

// startNotify picks the broadcaster for NOTIFY_BACKEND. For the redis and
// kafka backends a relay feeds events from the broker back into the local hub.
func startNotify(ctx context.Context, cfg *config.Config, hub *notify.Hub, redisClient *redis.Client, log logrus.FieldLogger) (notify.Broadcaster, func(), error) {
	switch cfg.NotifyBackend {
	case config.NotifyRedis:
		relay := notify.NewRedisRelay(redisClient, cfg.NotifyRedisChannel, hub, log)
		if err := relay.Start(ctx); err != nil {
			return nil, nil, err
		}
		log.WithField("channel", cfg.NotifyRedisChannel).Info("Relaying order events through redis")
		stop := func() {
			if err := relay.Close(); err != nil {
				log.WithError(err).Warn("Error closing redis relay")
			}
		}
		return notify.NewRedisBroadcaster(redisClient, cfg.NotifyRedisChannel), stop, nil

	case config.NotifyKafka:
		broadcaster := notify.NewKafkaBroadcaster(cfg.KafkaOrderTopic, cfg.KafkaBrokers...)
		relay := notify.NewKafkaRelay(hub, log, cfg.KafkaOrderTopic, cfg.KafkaBrokers...)
		done := make(chan struct{})
		go func() {
			defer close(done)
			relay.Run(ctx)
		}()
		log.WithField("topic", cfg.KafkaOrderTopic).Info("Relaying order events through kafka")
		stop := func() {
			<-done
			relay.Close()
			if err := broadcaster.Close(); err != nil {
				log.WithError(err).Warn("Error closing kafka writer")
			}
		}
		return broadcaster, stop, nil

	default:
		return hub, func() {}, nil
	}
}
