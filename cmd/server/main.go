package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpctl "marketplace-service/internal/controllers/http"
	"marketplace-service/internal/infra/database"
	"marketplace-service/internal/infra/events"
	"marketplace-service/internal/infra/rabbitmq"
	"marketplace-service/internal/infra/rediscache"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/repository/memory"
	mysqlrepo "marketplace-service/internal/repository/mysql"
	"marketplace-service/internal/services"
	"marketplace-service/pkg/config"
	"marketplace-service/pkg/jwtutil"
	"marketplace-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "marketplace-service"

type stores struct {
	products repository.ProductRepository
	bids     repository.BidRepository
	orders   repository.OrderRepository
}

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()
	zl.Info("starting", cfg.LogFields()...)

	st, err := openStores(cfg, zl)
	if err != nil {
		zl.Fatal("storage init failed", zap.Error(err))
	}

	var (
		cache     services.ProductCache
		cartStore services.CartStore = memory.NewCartStore()
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: 10,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
		defer rdb.Close()
		cache = rediscache.NewProductCache(rdb, cfg.Redis.ProductCacheTTL, zl)
		cartStore = rediscache.NewCartStore(rdb, cfg.Redis.CartTTL)
	} else {
		zl.Warn("REDIS_ADDR not set, product cache disabled and carts kept in memory")
	}

	var publisher rabbitmq.PublisherInterface
	if cfg.Broker.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.Broker.URL, cfg.Broker.Exchange, zl)
		if err != nil {
			zl.Fatal("failed to init publisher", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	} else {
		zl.Warn("RABBITMQ_URL not set, events are only logged")
	}
	dispatcher := events.NewDispatcher(publisher, zl)
	defer dispatcher.Wait()

	catalog := services.NewCatalogService(st.products, cache, zl)
	orders := services.NewOrderService(st.orders, catalog, dispatcher, zl)
	bids := services.NewBidService(st.bids, catalog, orders, dispatcher, cfg.Bid.TTL, zl)
	carts := services.NewCartService(cartStore, catalog, zl)
	market := services.NewMarketplace(catalog, bids, orders, carts, dispatcher, zl)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpctl.RequestID(zl), httpctl.AccessLog(zl), httpctl.Metrics())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := httpctl.NewHandler(market, jwtutil.NewJWTUtil(cfg.JWT.SigningKey, cfg.JWT.ExpirationHours))
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return bids.RunExpiry(gctx, cfg.Bid.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		return
	}
	zl.Info("server stopped")
}

func openStores(cfg *config.Config, zl *zap.Logger) (stores, error) {
	if cfg.StorageDriver == "memory" {
		zl.Warn("using in-memory storage, data is lost on restart")
		return stores{
			products: memory.NewProductRepository(),
			bids:     memory.NewBidRepository(),
			orders:   memory.NewOrderRepository(),
		}, nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return stores{}, err
	}
	return stores{
		products: mysqlrepo.NewProductRepository(db, zl),
		bids:     mysqlrepo.NewBidRepository(db, zl),
		orders:   mysqlrepo.NewOrderRepository(db, zl),
	}, nil
}
