// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	repository "github.com/okian/careboard/internal/adapters/repository"
	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/types"
	"github.com/okian/careboard/pkg/logger"
	"github.com/okian/careboard/pkg/metrics"
)

// ErrNotStarted is returned by the query methods before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the analytics dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool

	// Configuration
	database  repository.Config
	storeOpts []repository.Option

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDatabase sets the connection settings used by Start.
func WithDatabase(cfg repository.Config) Option {
	return func(s *Service) {
		s.database = cfg
	}
}

// WithStoreOptions forwards options to the Query Layer.
func WithStoreOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithQueryTimeout bounds each statement.
func WithQueryTimeout(d time.Duration) Option {
	return WithStoreOptions(repository.WithQueryTimeout(d))
}

// WithRowLimit caps the ranked endpoints.
func WithRowLimit(n int) Option {
	return WithStoreOptions(repository.WithRowLimit(n))
}

// WithMinStateFacilities sets the per-state facility threshold.
func WithMinStateFacilities(n int) Option {
	return WithStoreOptions(repository.WithMinStateFacilities(n))
}

// WithTopMeasure sets the measure used by the top hospitals ranking.
func WithTopMeasure(measureID string) Option {
	return WithStoreOptions(repository.WithTopMeasure(measureID))
}

// WithPool configures the connection pool.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return WithStoreOptions(repository.WithPool(maxOpen, maxIdle, maxLifetime))
}

// WithStore injects a ready store. The service does not close it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		database: repository.Config{Driver: string(repository.MySQL)},
		logger:   nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the Query Layer. The database is not dialled here; an
// unreachable server shows up in /readyz and as empty responses.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting analytics service...")

	if s.store == nil {
		opts := append([]repository.Option{repository.WithLogger(s.logger.Named("repository"))}, s.storeOpts...)
		store, err := repository.Open(ctx, s.database, opts...)
		if err != nil {
			return err
		}
		s.store = store
		s.ownsStore = true
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "analytics service started",
		logger.String("driver", s.database.Driver),
		logger.Bool("injectedStore", !s.ownsStore),
	)

	return nil
}

// Stop releases the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping analytics service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "analytics service stopped")
}

func (s *Service) current() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil
	}
	return s.store
}

func notStarted[T any]() repository.Result[T] {
	return repository.Result[T]{Err: ErrNotStarted}
}

// KPIs runs the hospital count and the average readmission score. Each half
// falls back to its default (0, "N/A") independently; the returned error
// joins whichever queries faulted.
func (s *Service) KPIs(ctx context.Context, f types.Filter) (model.KPIs, error) {
	store := s.current()
	if store == nil {
		return model.KPIs{}, ErrNotStarted
	}

	count := store.CountHospitals(ctx, f)
	avg := store.AverageReadmissionScore(ctx, f)

	var kpis model.KPIs
	if n, ok := count.First(); ok {
		kpis.TotalHospitals = n
	}
	if score, ok := avg.First(); ok {
		kpis.AverageReadmissionScore = score
	}
	return kpis, errors.Join(count.Err, avg.Err)
}

// WorstMeasures returns the highest-average readmission measures.
func (s *Service) WorstMeasures(ctx context.Context, f types.Filter) repository.Result[model.MeasureScore] {
	store := s.current()
	if store == nil {
		return notStarted[model.MeasureScore]()
	}
	return store.WorstMeasures(ctx, f)
}

// NationalPerformance returns performance category shares.
func (s *Service) NationalPerformance(ctx context.Context, f types.Filter) repository.Result[model.CategoryShare] {
	store := s.current()
	if store == nil {
		return notStarted[model.CategoryShare]()
	}
	return store.NationalPerformance(ctx, f)
}

// PerformanceByVolume returns the average score per volume tier.
func (s *Service) PerformanceByVolume(ctx context.Context, f types.Filter) repository.Result[model.TierScore] {
	store := s.current()
	if store == nil {
		return notStarted[model.TierScore]()
	}
	return store.PerformanceByVolume(ctx, f)
}

// TopHospitals returns the best scores on the configured measure.
func (s *Service) TopHospitals(ctx context.Context, f types.Filter) repository.Result[model.HospitalScore] {
	store := s.current()
	if store == nil {
		return notStarted[model.HospitalScore]()
	}
	return store.TopHospitals(ctx, f)
}

// StateDetails returns per-state summaries.
func (s *Service) StateDetails(ctx context.Context) repository.Result[model.StateDetail] {
	store := s.current()
	if store == nil {
		return notStarted[model.StateDetail]()
	}
	return store.StateDetails(ctx)
}

// PerformanceByState returns per-state averages.
func (s *Service) PerformanceByState(ctx context.Context) repository.Result[model.StateScore] {
	store := s.current()
	if store == nil {
		return notStarted[model.StateScore]()
	}
	return store.PerformanceByState(ctx)
}

// Ping checks database connectivity and records the outcome.
func (s *Service) Ping(ctx context.Context) error {
	store := s.current()
	if store == nil {
		metrics.SetReady(false)
		return ErrNotStarted
	}
	err := store.Ping(ctx)
	metrics.SetReady(err == nil)
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() model.ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.ServiceStats{
		Started: s.started,
		Driver:  s.database.Driver,
	}

	if s.started && s.store != nil {
		pool := s.store.Stats()

		stats.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
		stats.Pool = &model.PoolStats{
			OpenConnections:    pool.OpenConnections,
			InUse:              pool.InUse,
			Idle:               pool.Idle,
			WaitCount:          pool.WaitCount,
			WaitDurationMs:     pool.WaitDuration.Milliseconds(),
			MaxOpenConnections: pool.MaxOpenConnections,
		}

		// Update metrics
		metrics.UpdatePool(pool.OpenConnections, pool.InUse, pool.Idle, pool.WaitCount)
	}

	return stats
}
