package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/config"
	"github.com/JakeFAU/marketing-site/internal/metrics"
	"github.com/JakeFAU/marketing-site/internal/policy/ratelimit"
	"github.com/JakeFAU/marketing-site/internal/preview"
	"github.com/JakeFAU/marketing-site/internal/revalidate"
	"github.com/JakeFAU/marketing-site/internal/site"
	"github.com/JakeFAU/marketing-site/internal/spam"
	"github.com/JakeFAU/marketing-site/internal/vitals"
)

// EventEnqueuer accepts lead events for asynchronous delivery.
type EventEnqueuer interface {
	Enqueue(ctx context.Context, event site.Event) error
}

// Deps are the collaborators the handlers need. Events, Limiter and
// Invalidator may be nil.
type Deps struct {
	Contacts    site.ContactStore
	Subscribers site.SubscriberStore
	Health      site.HealthChecker
	Events      EventEnqueuer
	Invalidator site.Invalidator
	Spam        *spam.Detector
	Preview     *preview.Mode
	Vitals      *vitals.Aggregator
	Limiter     *ratelimit.Limiter
	Clock       site.Clock
	IDs         site.IDGenerator
}

// Server wires HTTP handlers to the stores and event pipeline.
type Server struct {
	router chi.Router
	deps   Deps
	cfg    config.Config
	table  revalidate.Table
	logger *zap.Logger
}

const eventEnqueueTimeout = time.Second

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Spam == nil {
		deps.Spam = spam.NewDetector(spam.Config{})
	}
	if deps.Preview == nil {
		deps.Preview = preview.New(preview.Config{})
	}
	if deps.Vitals == nil {
		deps.Vitals = vitals.NewAggregator()
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		table:  revalidate.DefaultTable,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(deps.IDs))
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if timeout := cfg.RequestTimeout(); timeout > 0 {
		r.Use(timeoutMiddleware(timeout))
	}

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Group(func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(deps.Limiter.Middleware(s.limiterKey, s.tooManyRequests))
			}
			r.Post("/contacts", s.createContact)
			r.Post("/subscribe", s.subscribe)
		})

		r.Post("/revalidate", s.revalidate)

		r.Get("/sanity/preview", s.enablePreview)
		r.Get("/sanity/exit-preview", s.exitPreview)
		r.Get("/exit-preview", s.exitPreview)

		r.Post("/vitals", s.recordVitals)
		r.Get("/vitals", s.reportVitals)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) now() time.Time {
	if s.deps.Clock != nil {
		return s.deps.Clock.Now()
	}
	return time.Now().UTC()
}

// detail exposes err to clients outside production. It returns nil so the
// error field is omitted otherwise.
func (s *Server) detail(err error) any {
	if err == nil || s.cfg.IsProduction() {
		return nil
	}
	return err.Error()
}

// publish enqueues event without letting failures reach the caller.
func (s *Server) publish(ctx context.Context, event site.Event) {
	if s.deps.Events == nil {
		return
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) > 0 {
		event.Trace = carrier
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventEnqueueTimeout)
	defer cancel()
	if err := s.deps.Events.Enqueue(ctx, event); err != nil {
		s.logger.Warn("lead event dropped", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}
