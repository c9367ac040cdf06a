package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/metrics"
)

// Retry defaults for ConnectWithRetry.
const (
	DefaultRetryAttempts      = 5
	DefaultRetryDelay         = 5 * time.Second
	DefaultSlowQueryThreshold = 500 * time.Millisecond
)

const probeSQL = "SELECT 1"

// Option customizes a Manager.
type Option func(*Manager)

// WithPoolFactory overrides how the pool is constructed.
func WithPoolFactory(factory PoolFactory) Option {
	return func(m *Manager) {
		m.factory = factory
	}
}

// WithPool installs an existing pool (primarily for testing).
func WithPool(pool Pool) Option {
	return func(m *Manager) {
		m.factory = func(context.Context, Config) (Pool, error) { return pool, nil }
	}
}

// Manager memoizes one pool and instruments every statement issued through it.
type Manager struct {
	cfg     Config
	logger  *zap.Logger
	factory PoolFactory

	mu        sync.Mutex
	pool      Pool
	connected atomic.Bool
}

// NewManager constructs a Manager. The pool is not created until first use.
func NewManager(cfg Config, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	m := &Manager{
		cfg:     cfg,
		logger:  logger,
		factory: NewPgxPool,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pool returns the memoized pool, creating it on the first call.
func (m *Manager) Pool(ctx context.Context) (Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool != nil {
		return m.pool, nil
	}
	pool, err := m.factory(ctx, m.cfg)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	m.pool = pool
	return pool, nil
}

// Connected reports whether a liveness probe has succeeded since the pool was built.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// ConnectWithRetry probes the database until it answers. Between failed
// probes it waits a fixed delay. maxAttempts <= 0 selects DefaultRetryAttempts
// and a negative delay selects DefaultRetryDelay; a zero delay retries without
// waiting. Once a probe succeeds later calls return immediately.
func (m *Manager) ConnectWithRetry(ctx context.Context, maxAttempts int, delay time.Duration) error {
	if m.connected.Load() {
		return nil
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryAttempts
	}
	if delay < 0 {
		delay = DefaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = m.probe(ctx)
		if lastErr == nil {
			m.connected.Store(true)
			m.logger.Info("database connection established", zap.Int("attempt", attempt))
			return nil
		}
		m.logger.Warn("database connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(lastErr),
		)
		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return &ConnectionError{Attempts: attempt, Err: errors.Join(lastErr, err)}
		}
	}
	return &ConnectionError{Attempts: maxAttempts, Err: unwrapConnection(lastErr)}
}

// Ping runs a single liveness probe without touching the connected flag.
func (m *Manager) Ping(ctx context.Context) error {
	return m.probe(ctx)
}

func (m *Manager) probe(ctx context.Context) error {
	var one int
	return m.QueryRow(ctx, probeSQL, nil, &one)
}

// Exec runs a statement that returns no rows and reports rows affected.
func (m *Manager) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	pool, err := m.Pool(ctx)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	tag, err := pool.Exec(ctx, sql, args...)
	m.observe(sql, start, err)
	if err != nil {
		return 0, &QueryError{Statement: statementName(sql), Err: err}
	}
	return tag.RowsAffected(), nil
}

// QueryRow runs a statement expected to return at most one row and scans it
// into dest. ErrNoRows is returned when nothing matched.
func (m *Manager) QueryRow(ctx context.Context, sql string, args []any, dest ...any) error {
	pool, err := m.Pool(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	err = pool.QueryRow(ctx, sql, args...).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		m.observe(sql, start, nil)
		return ErrNoRows
	}
	m.observe(sql, start, err)
	if err != nil {
		return &QueryError{Statement: statementName(sql), Err: err}
	}
	return nil
}

// Query runs a statement and calls fn once per row. The rows are closed and
// the connection returned to the pool on every exit path.
func (m *Manager) Query(ctx context.Context, sql string, args []any, fn func(pgx.Rows) error) (err error) {
	pool, err := m.Pool(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		m.observe(sql, start, err)
	}()

	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return &QueryError{Statement: statementName(sql), Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err = fn(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}
	if err = rows.Err(); err != nil {
		return &QueryError{Statement: statementName(sql), Err: err}
	}
	return nil
}

// Close releases the pool. A later call to Pool builds a fresh one.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
	m.connected.Store(false)
}

func (m *Manager) observe(sql string, start time.Time, err error) {
	elapsed := time.Since(start)
	name := statementName(sql)
	metrics.ObserveQuery(name, elapsed, err)
	if elapsed > m.cfg.SlowQueryThreshold {
		metrics.ObserveSlowQuery(name)
		m.logger.Warn("slow query",
			zap.String("statement", name),
			zap.Duration("duration", elapsed),
			zap.Duration("threshold", m.cfg.SlowQueryThreshold),
		)
		return
	}
	m.logger.Debug("query executed",
		zap.String("statement", name),
		zap.Duration("duration", elapsed),
		zap.Bool("failed", err != nil),
	)
}

// statementName labels a statement by its leading keyword and target table.
func statementName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToLower(fields[0])
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "INTO", "FROM", "UPDATE", "TABLE", "INDEX":
		default:
			continue
		}
		for _, next := range fields[i+1:] {
			switch strings.ToUpper(next) {
			case "IF", "NOT", "EXISTS", "ONLY":
				continue
			}
			return verb + " " + strings.ToLower(strings.Trim(next, "(;"))
		}
	}
	return verb
}

func unwrapConnection(err error) error {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Err
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
