// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/api"
	"github.com/JakeFAU/marketing-site/internal/clock/system"
	"github.com/JakeFAU/marketing-site/internal/config"
	"github.com/JakeFAU/marketing-site/internal/database"
	"github.com/JakeFAU/marketing-site/internal/dispatcher"
	"github.com/JakeFAU/marketing-site/internal/id/uuid"
	"github.com/JakeFAU/marketing-site/internal/logging"
	"github.com/JakeFAU/marketing-site/internal/notify"
	"github.com/JakeFAU/marketing-site/internal/policy/ratelimit"
	"github.com/JakeFAU/marketing-site/internal/preview"
	memorypublisher "github.com/JakeFAU/marketing-site/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/marketing-site/internal/publisher/pubsub"
	queueMemory "github.com/JakeFAU/marketing-site/internal/queue/memory"
	"github.com/JakeFAU/marketing-site/internal/revalidate"
	"github.com/JakeFAU/marketing-site/internal/site"
	"github.com/JakeFAU/marketing-site/internal/spam"
	memoryStorage "github.com/JakeFAU/marketing-site/internal/storage/memory"
	pgstore "github.com/JakeFAU/marketing-site/internal/storage/postgres"
	"github.com/JakeFAU/marketing-site/internal/telemetry"
	"github.com/JakeFAU/marketing-site/internal/vitals"
	"github.com/JakeFAU/marketing-site/internal/worker"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = time.Minute
)

// App contains the application's dependencies.
type App struct {
	cfg             *config.Config
	logger          *zap.Logger
	apiServer       *api.Server
	dispatch        *dispatcher.Dispatcher
	queue           *queueMemory.Queue
	db              *database.Manager
	limiter         *ratelimit.Limiter
	redis           *redis.Client
	pubsubClient    *pubsub.Client
	pubsubPublisher *gcppublisher.Publisher
	tracer          *sdktrace.TracerProvider
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	// Only non-sensitive fields are logged.
	type SanitizedConfig struct {
		ServerPort  int    `json:"server_port"`
		Environment string `json:"environment,omitempty"`
		Driver      string `json:"database_driver"`
	}
	safeCfg := SanitizedConfig{
		ServerPort:  cfg.Server.Port,
		Environment: cfg.Server.Environment,
		Driver:      cfg.Database.Driver,
	}
	logger.Info("Creating application", zap.Any("config", safeCfg))
	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// NewLogger builds the process logger and installs it as the zap global.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// NewDatabase builds the Connection Manager from configuration. The pool is
// created lazily by the first statement.
func NewDatabase(cfg *config.Config, logger *zap.Logger) *database.Manager {
	return database.NewManager(database.Config{
		ConnString:         cfg.Database.ConnString(),
		MaxConns:           cfg.Database.MaxConns,
		IdleTimeout:        cfg.Database.IdleTimeout(),
		ConnectTimeout:     cfg.Database.ConnectTimeout(),
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold(),
	}, logger.Named("database"))
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}

	app.tracer, err = telemetry.InitTracerProvider(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Server.Environment,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}

	app.logger.Info("building application dependencies")
	stores, err := setupStores(ctx, app)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	ids := uuid.New()
	invalidator, err := setupInvalidators(ctx, app, ids)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	sinks, err := setupSinks(ctx, app)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.queue = queueMemory.NewQueue(cfg.Events.QueueDepth)
	app.dispatch = setupDispatcher(app, sinks)

	if cfg.RateLimit.RPS > 0 {
		app.limiter = ratelimit.New(ratelimit.Config{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst})
		app.logger.Info("rate limiter enabled",
			zap.Float64("rps", cfg.RateLimit.RPS),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
	} else {
		app.logger.Info("rate limiter disabled")
	}

	app.apiServer = api.NewServer(api.Deps{
		Contacts:    stores.contacts,
		Subscribers: stores.subscribers,
		Health:      stores.health,
		Events:      app.dispatch,
		Invalidator: invalidator,
		Spam: spam.NewDetector(spam.Config{
			Keywords:  cfg.Spam.Keywords,
			MaxLinks:  cfg.Spam.MaxLinks,
			MinLength: cfg.Spam.MinLength,
		}),
		Preview: preview.New(preview.Config{
			Secret:     cfg.Preview.Secret,
			CookieName: cfg.Preview.CookieName,
			Secure:     strings.HasPrefix(cfg.Server.BaseURL, "https://"),
		}),
		Vitals:  vitals.NewAggregator(),
		Limiter: app.limiter,
		Clock:   system.New(),
		IDs:     ids,
	}, *cfg, logger.Named("api"))

	return app, nil
}

type storeSet struct {
	contacts    site.ContactStore
	subscribers site.SubscriberStore
	health      site.HealthChecker
}

func setupStores(ctx context.Context, app *App) (storeSet, error) {
	if app.cfg.Database.Driver == "memory" {
		app.logger.Warn("using in-memory storage; submissions are lost on restart")
		mem := memoryStorage.NewStore()
		return storeSet{contacts: mem, subscribers: mem, health: mem}, nil
	}

	app.db = NewDatabase(app.cfg, app.logger)
	if err := app.db.ConnectWithRetry(ctx, app.cfg.Database.RetryAttempts, app.cfg.Database.RetryDelay()); err != nil {
		return storeSet{}, fmt.Errorf("database connect failed: %w", err)
	}
	if app.cfg.Database.AutoMigrate {
		if err := app.db.Migrate(ctx); err != nil {
			return storeSet{}, fmt.Errorf("database migrate failed: %w", err)
		}
	}

	contacts, err := pgstore.NewContactStore(app.db)
	if err != nil {
		return storeSet{}, fmt.Errorf("contact store init failed: %w", err)
	}
	subscribers, err := pgstore.NewSubscriberStore(app.db)
	if err != nil {
		return storeSet{}, fmt.Errorf("subscriber store init failed: %w", err)
	}
	app.logger.Info("postgres stores initialized", zap.Int32("max_conns", app.cfg.Database.MaxConns))
	return storeSet{contacts: contacts, subscribers: subscribers, health: app.db}, nil
}

func setupInvalidators(ctx context.Context, app *App, ids site.IDGenerator) (site.Invalidator, error) {
	var chain revalidate.Fanout
	if app.cfg.Redis.Addr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     app.cfg.Redis.Addr,
			Password: app.cfg.Redis.Password,
			DB:       app.cfg.Redis.DB,
		})
		inv, err := revalidate.NewRedisInvalidator(app.redis, app.cfg.Redis.KeyPrefix, app.cfg.Redis.Channel)
		if err != nil {
			return nil, fmt.Errorf("redis invalidator init failed: %w", err)
		}
		chain = append(chain, inv)
		app.logger.Info("redis invalidator enabled",
			zap.String("addr", app.cfg.Redis.Addr),
			zap.String("channel", app.cfg.Redis.Channel),
		)
	}
	if app.cfg.CDN.DistributionID != "" {
		client, err := revalidate.NewCloudFrontClient(ctx, app.cfg.CDN.Region, app.cfg.CDN.AccessKey, app.cfg.CDN.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("cloudfront client init failed: %w", err)
		}
		inv, err := revalidate.NewCloudFrontInvalidator(client, app.cfg.CDN.DistributionID, ids)
		if err != nil {
			return nil, fmt.Errorf("cloudfront invalidator init failed: %w", err)
		}
		chain = append(chain, inv)
		app.logger.Info("cloudfront invalidator enabled", zap.String("distribution", app.cfg.CDN.DistributionID))
	}
	if len(chain) == 0 {
		app.logger.Warn("no cache invalidator configured, revalidations are recorded in memory only")
		return revalidate.NewRecorder(), nil
	}
	return chain, nil
}

func setupSinks(ctx context.Context, app *App) ([]site.EventSink, error) {
	var sinks []site.EventSink
	if app.cfg.Notify.Enabled {
		client, err := notify.NewSESClient(ctx, app.cfg.Notify.Region, app.cfg.Notify.AccessKey, app.cfg.Notify.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("ses client init failed: %w", err)
		}
		mailer, err := notify.NewMailer(client, notify.MailerConfig{
			From:     app.cfg.Notify.From,
			FromName: app.cfg.Notify.FromName,
			To:       app.cfg.Notify.To,
		})
		if err != nil {
			return nil, fmt.Errorf("mailer init failed: %w", err)
		}
		sinks = append(sinks, mailer)
		app.logger.Info("email notifications enabled", zap.Int("recipients", len(app.cfg.Notify.To)))
	}

	if app.cfg.PubSub.TopicName != "" {
		var err error
		app.pubsubClient, err = pubsub.NewClient(ctx, app.cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		app.pubsubPublisher = gcppublisher.New(app.pubsubClient.Topic(app.cfg.PubSub.TopicName))
		sinks = append(sinks, app.pubsubPublisher)
		app.logger.Info(
			"Pub/Sub publisher initialized",
			zap.String("project", app.cfg.PubSub.ProjectID),
			zap.String("topic", app.cfg.PubSub.TopicName),
		)
	}

	if app.cfg.Database.Driver == "memory" {
		sinks = append(sinks, memorypublisher.New())
	}
	if len(sinks) == 0 {
		app.logger.Warn("No lead event sink configured, logging events only")
		sinks = append(sinks, notify.NewLogSink(app.logger.Named("leads")))
	}
	return sinks, nil
}

func setupDispatcher(app *App, sinks []site.EventSink) *dispatcher.Dispatcher {
	workers := make([]*worker.Worker, 0, app.cfg.Events.Workers)
	for i := 0; i < app.cfg.Events.Workers; i++ {
		workers = append(workers, worker.New(
			app.queue,
			sinks,
			app.logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	app.logger.Info("lead event pipeline configured",
		zap.Int("workers", len(workers)),
		zap.Int("queue_depth", app.cfg.Events.QueueDepth),
		zap.Strings("sinks", names),
	)
	return dispatcher.New(app.queue, workers)
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Workers outlive the request context so queued events drain on shutdown.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		a.logger.Info("dispatcher started")
		a.dispatch.Run(workCtx)
	}()

	if a.limiter != nil {
		go a.pruneLimiter(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           telemetry.Handler(a.apiServer.Handler(), "site"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	a.queue.Close()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		a.logger.Warn("lead events still queued at shutdown", zap.Int("pending", a.queue.Len()))
		cancelWork()
		<-drained
	}

	a.Close(shutdownCtx)
	return nil
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(); n > 0 {
				a.logger.Debug("rate limiter pruned", zap.Int("buckets", n))
			}
		}
	}
}

// Close releases every client the App owns. It is safe on a partially
// built App.
func (a *App) Close(ctx context.Context) {
	if a.queue != nil {
		a.queue.Close()
	}
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis client close failed", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
}
