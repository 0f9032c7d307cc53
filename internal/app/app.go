package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/storefront/internal/cfg"
	v1Grpc "github.com/DRSN-tech/storefront/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/storefront/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront/internal/infrastructure/minio"
	"github.com/DRSN-tech/storefront/internal/infrastructure/notifier"
	"github.com/DRSN-tech/storefront/internal/infrastructure/telegram"
	"github.com/DRSN-tech/storefront/internal/metrics"
	"github.com/DRSN-tech/storefront/internal/repository/memory"
	s3Repo "github.com/DRSN-tech/storefront/internal/repository/minio"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/repository/redis"
	redisConv "github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/closer"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	initTimeout       = 10 * time.Second
	kafkaTopicTimeout = 10 * time.Second
)

// App — собранный сервис: хранилище, внешние подсистемы и оба транспорта.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
}

// storage — порты хранилища выбранного драйвера.
type storage struct {
	tx        usecase.Transactor
	products  usecase.ProductRepository
	orders    usecase.OrderRepository
	operators usecase.OperatorRepository
	cache     usecase.CatalogCache
	health    map[string]v1Http.HealthCheck
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	if err := a.init(ctx); err != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer closeCancel()
		if closeErr := a.closer.Close(closeCtx); closeErr != nil {
			log.Warnf("partial init cleanup: %v", closeErr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init(ctx context.Context) error {
	st, err := a.initStorage(ctx)
	if err != nil {
		return err
	}

	if err := a.initCache(ctx, st); err != nil {
		return err
	}

	imagesInfra, err := a.initImages(ctx)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	orderNotifier := a.initNotifier(st.operators, m)

	checkoutUC := usecase.NewCheckoutUC(st.tx, st.products, st.orders, st.cache, orderNotifier, m, a.logger)
	catalogUC := usecase.NewCatalogUC(st.products, st.orders, st.cache, imagesInfra, a.logger, a.cfg.Http.PublicBaseURL)
	productUC := usecase.NewProductUC(st.products, st.orders, imagesInfra, st.cache, a.logger)
	operatorUC := usecase.NewOperatorUC(st.operators, a.logger)

	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.grpcSrv.RegisterServices(checkoutUC, catalogUC)
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	var maxImageSize int64
	if a.cfg.Minio != nil {
		maxImageSize = a.cfg.Minio.MaxImageSize
	}

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(v1Http.UseCases{
		Checkout:  checkoutUC,
		Catalog:   catalogUC,
		Products:  productUC,
		Operators: operatorUC,
	}, a.cfg.Http, a.cfg.Admin, maxImageSize, m, st.health)

	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return nil
}

func (a *App) initStorage(ctx context.Context) (*storage, error) {
	switch a.cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		if a.cfg.Storage.Seed {
			if err := memory.SeedDemoCatalog(ctx, store); err != nil {
				return nil, e.Wrap(whereami.WhereAmI(), err)
			}
			a.logger.Infof("memory storage seeded with demo catalog")
		}
		a.logger.Warnf("using in-memory storage, data is lost on restart")

		return &storage{
			tx:        store,
			products:  memory.NewProductRepo(store),
			orders:    memory.NewOrderRepo(store),
			operators: memory.NewOperatorRepo(store),
			health:    map[string]v1Http.HealthCheck{},
		}, nil
	default:
		db, err := a.initPGDB(ctx)
		if err != nil {
			return nil, err
		}

		return &storage{
			tx:        pgdb.NewTransactor(db.Pool, a.logger),
			products:  pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverterImpl()),
			orders:    pgdb.NewOrderRepo(db.Pool, pgdbConv.NewOrderConverterImpl()),
			operators: pgdb.NewOperatorRepo(db.Pool, pgdbConv.NewOperatorConverterImpl()),
			health:    map[string]v1Http.HealthCheck{"postgres": db.Ping},
		}, nil
	}
}

func (a *App) initPGDB(ctx context.Context) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, a.cfg.Db)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		a.logger.Infof("postgres pool closed")
		return nil
	})

	if err := db.RunMigrations(a.logger); err != nil {
		a.logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

// initCache выбирает кэш каталога. Без Redis над Postgres кэш отключён: экземпляры делят одну базу.
func (a *App) initCache(ctx context.Context, st *storage) error {
	if a.cfg.Redis == nil {
		ttl := time.Duration(0)
		if a.cfg.Storage.Driver == config.StorageDriverMemory {
			ttl = time.Minute
		}
		st.cache = memory.NewCatalogCache(ttl)
		return nil
	}

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	if err := redisClient.Ping(ctx); err != nil {
		_ = redisClient.Close(ctx)
		a.logger.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("redis", redisClient.Close)

	st.cache = redis.NewCacheRepo(redisClient, redisConv.NewCatalogConverterImpl(), a.cfg.Redis.CatalogTTL, a.logger)
	st.health["redis"] = redisClient.Ping
	return nil
}

func (a *App) initImages(ctx context.Context) (usecase.ImagesInfra, error) {
	if a.cfg.Minio == nil {
		a.logger.Warnf("MINIO_ENDPOINT is empty, product images are disabled")
		return nil, nil
	}

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// Отменяется только после WaitForCleanup
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	infra := minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient, a.cfg.Minio.BucketName), a.cfg.Minio, a.logger, cleanupCtx)
	a.closer.Add("image cleanup", func(ctx context.Context) error {
		defer cancelCleanup()
		return infra.WaitForCleanup(ctx)
	})

	return infra, nil
}

func (a *App) initNotifier(operators usecase.OperatorRepository, m *metrics.Metrics) *notifier.Notifier {
	var publisher notifier.EventPublisher
	if a.cfg.Kafka != nil {
		producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
		if err := producer.EnsureTopic(kafkaTopicTimeout); err != nil {
			a.logger.Warnf("kafka topic check failed, publishing anyway: %v", err)
		}
		a.closer.Add("kafka producer", producer.Close)
		publisher = producer
	}

	var sender notifier.MessageSender
	if a.cfg.Telegram != nil {
		sender = telegram.NewClient(a.cfg.Telegram)
	} else {
		a.logger.Warnf("BOT_TOKEN is empty, operator chat notifications are disabled")
	}

	n := notifier.NewNotifier(publisher, sender, operators, m, *a.cfg.Notifier, a.logger)
	a.closer.Add("notifier", n.Wait)

	return n
}

// Run запускает транспорты и блокируется до сигнала остановки или падения сервера.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server", err)
		}
	}()

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		appErr = errors.Join(appErr, err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}
