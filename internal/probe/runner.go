package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/tiering"
	"github.com/okian/careboard/pkg/logger"
)

// recorder collects findings from concurrent workers.
type recorder struct {
	mu       sync.Mutex
	stats    *Stats
	findings []Finding
	verbose  bool
}

func (r *recorder) request() {
	r.mu.Lock()
	r.stats.Requests++
	r.mu.Unlock()
}

func (r *recorder) check(ctx context.Context, scope, endpoint string, problems []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Checks++
	for _, p := range problems {
		r.findings = append(r.findings, Finding{Scope: scope, Endpoint: endpoint, Problem: p})
		logger.Get().Warn(ctx, "property violated",
			logger.String("scope", scope),
			logger.String("endpoint", endpoint),
			logger.String("problem", p))
	}
	if len(problems) == 0 && r.verbose {
		logger.Get().Debug(ctx, "endpoint ok", logger.String("scope", scope), logger.String("endpoint", endpoint))
	}
}

// fail records a request that never produced a checkable body.
func (r *recorder) fail(ctx context.Context, scope, endpoint string, err error) {
	r.check(ctx, scope, endpoint, []string{err.Error()})
}

// Run probes every endpoint and returns ErrVerification when any property
// was violated. The findings are returned either way.
func Run(ctx context.Context, config *Config) ([]Finding, error) {
	if err := validate(config); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	rec := &recorder{stats: stats, verbose: config.Verbose}

	logger.Get().Info(ctx, "starting careboard probe",
		logger.String("baseURL", config.BaseURL),
		logger.String("states", strings.Join(config.States, ",")),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service readiness
	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Probe the filterable endpoints per scope concurrently
	scopes := append([]string{""}, config.States...)
	probeScopes(ctx, client, config.Workers, scopes, rec)

	// Step 3: Probe the state summaries
	probeStateSummaries(ctx, client, config.MinStateFacilities, rec)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	stats.Findings = len(rec.findings)
	displayFinalStats(ctx, stats)

	if len(rec.findings) > 0 {
		return rec.findings, fmt.Errorf("%w: %d problems", ErrVerification, len(rec.findings))
	}
	logger.Get().Info(ctx, "probe completed successfully")
	return rec.findings, nil
}

func validate(config *Config) error {
	switch {
	case config == nil:
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	case strings.TrimSpace(config.BaseURL) == "":
		return fmt.Errorf("%w: base URL is empty", ErrInvalidConfig)
	case config.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case config.MinStateFacilities < 0:
		return fmt.Errorf("%w: min state facilities must not be negative", ErrInvalidConfig)
	}
	return nil
}

// checkServiceHealth verifies the service can reach its database.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service readiness")

	resp, err := client.Get(ctx, PathReady, "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read readiness body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: readiness answered %d", ErrUnhealthy, resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is ready")
	return nil
}

// probeScopes fans the scopes out over a worker pool.
func probeScopes(ctx context.Context, client *HTTPClient, workers int, scopes []string, rec *recorder) {
	scopeChan := make(chan string, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for scope := range scopeChan {
				select {
				case <-ctx.Done():
					return
				default:
					probeScope(ctx, client, scope, rec)
				}
			}
		}()
	}

	go func() {
		defer close(scopeChan)
		for _, s := range scopes {
			select {
			case <-ctx.Done():
				return
			case scopeChan <- s:
			}
		}
	}()

	wg.Wait()
}

// probeScope checks the five endpoints that accept a state filter.
func probeScope(ctx context.Context, client *HTTPClient, state string, rec *recorder) {
	scope := state
	if scope == "" {
		scope = nationalScope
	}

	rec.request()
	if kpis, err := getJSON[model.KPIs](ctx, client, PathKPIs, state); err != nil {
		rec.fail(ctx, scope, PathKPIs, err)
	} else {
		rec.check(ctx, scope, PathKPIs, verifyKPIs(kpis))
	}

	rec.request()
	if rows, err := getJSON[[]model.MeasureScore](ctx, client, PathWorstMeasures, state); err != nil {
		rec.fail(ctx, scope, PathWorstMeasures, err)
	} else {
		scores := make([]float64, len(rows))
		for i, r := range rows {
			scores[i] = r.AverageScore
		}
		rec.check(ctx, scope, PathWorstMeasures, append(verifyList(rows), verifyRanked(scores)...))
	}

	rec.request()
	if rows, err := getJSON[[]model.CategoryShare](ctx, client, PathNationalPerf, state); err != nil {
		rec.fail(ctx, scope, PathNationalPerf, err)
	} else {
		rec.check(ctx, scope, PathNationalPerf, append(verifyList(rows), verifyShares(rows, state == "")...))
	}

	rec.request()
	if rows, err := getJSON[[]model.TierScore](ctx, client, PathPerformanceVolume, state); err != nil {
		rec.fail(ctx, scope, PathPerformanceVolume, err)
	} else {
		rec.check(ctx, scope, PathPerformanceVolume, append(verifyList(rows), verifyTiers(rows, tiering.Default())...))
	}

	rec.request()
	if rows, err := getJSON[[]model.HospitalScore](ctx, client, PathTopHospitals, state); err != nil {
		rec.fail(ctx, scope, PathTopHospitals, err)
	} else {
		scores := make([]float64, len(rows))
		for i, r := range rows {
			scores[i] = r.Score
		}
		rec.check(ctx, scope, PathTopHospitals, append(verifyList(rows), verifyRanked(scores)...))
	}
}

// probeStateSummaries checks the two endpoints that ignore the state filter.
func probeStateSummaries(ctx context.Context, client *HTTPClient, minFacilities int, rec *recorder) {
	rec.request()
	details, err := getJSON[[]model.StateDetail](ctx, client, PathStateDetails, "")
	if err != nil {
		rec.fail(ctx, nationalScope, PathStateDetails, err)
		details = nil
	} else {
		rec.check(ctx, nationalScope, PathStateDetails, append(verifyList(details), verifyStateDetails(details, minFacilities)...))
	}

	rec.request()
	scores, err := getJSON[[]model.StateScore](ctx, client, PathPerformanceByState, "")
	if err != nil {
		rec.fail(ctx, nationalScope, PathPerformanceByState, err)
		return
	}
	rec.check(ctx, nationalScope, PathPerformanceByState, append(verifyList(scores), verifyStateScores(scores, details)...))
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var requestsPerSecond float64
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("requests", stats.Requests),
		logger.Int("checks", stats.Checks),
		logger.Int("findings", stats.Findings),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
