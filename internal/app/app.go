package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/iheb-heni/product-management/internal/cfg"
	v1Http "github.com/iheb-heni/product-management/internal/delivery/v1/http"
	"github.com/iheb-heni/product-management/internal/infrastructure/kafka"
	"github.com/iheb-heni/product-management/internal/repository/pgdb"
	redisRepo "github.com/iheb-heni/product-management/internal/repository/redis"
	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/iheb-heni/product-management/pkg/clients"
	"github.com/iheb-heni/product-management/pkg/closer"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/iheb-heni/product-management/pkg/logger"
	"github.com/iheb-heni/product-management/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App связывает все подсистемы сервиса каталога товаров.
type App struct {
	cfg         *config.Config
	log         logger.Logger
	db          *postgres.PgDatabase
	redisClient *clients.RedisClient
	producer    *kafka.Producer
	worker      *kafka.OutboxWorker
	httpSrv     *v1Http.Server
}

// NewApp собирает приложение: базу с миграциями, Redis, Kafka,
// usecase и HTTP-сервер. Любая ошибка здесь фатальна для запуска.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		log.Errorf(err, "failed to initialize kafka producer")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Errorf(err, "failed to ensure kafka topic")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	productRepo := pgdb.NewProductRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)
	cacheRepo := redisRepo.NewCacheRepo(redisClient, cfg.Redis, log)

	productUC := usecase.NewProductUC(productRepo, outboxRepo, cacheRepo, db.Pool, log)

	worker := kafka.NewOutboxWorker(outboxRepo, producer, log, db.Dsn)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(productUC)

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		producer:    producer,
		worker:      worker,
		httpSrv:     v1Http.NewServer(r, cfg.Http),
	}, nil
}

// Run запускает воркер и HTTP-сервер и блокируется до сигнала или
// фатальной ошибки сервера. Ресурсы закрываются в порядке LIFO.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.worker.Start(ctx)

	c := closer.NewCloser(2 * time.Second)
	c.Add(func(ctx context.Context) error { a.db.Close(); return nil })
	c.Add(func(ctx context.Context) error { return a.redisClient.Client.Close() })
	c.Add(func(ctx context.Context) error { return a.producer.Close() })
	c.Add(func(ctx context.Context) error { a.worker.Stop(); return nil })
	c.Add(func(ctx context.Context) error { return a.httpSrv.Stop(ctx) })

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.log.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.log.Infof("Received shutdown signal, stopping gracefully...")
	}

	// Останавливаем LISTEN-воркер до закрытия ресурсов
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := c.Close(shutdownCtx); err != nil {
		a.log.Warnf("shutdown finished with errors: %v", err)
	}

	a.log.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(log logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(log); err != nil {
		log.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		log.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
