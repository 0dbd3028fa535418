package repository

import (
	"time"

	"github.com/okian/careboard/internal/domain/tiering"
	"github.com/okian/careboard/pkg/logger"
)

// Query defaults used by the dashboard.
const (
	defaultRowLimit           = 5
	defaultMinStateFacilities = 20
	defaultTopMeasure         = "READM_30_HF"
)

// defaultMeasurePrefixes select readmission (READM) and excess days in
// acute care (EDAC) measures.
var defaultMeasurePrefixes = []string{"READM", "EDAC"}

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithLogger sets the logger used to report query faults.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueryTimeout bounds each statement. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d >= 0 {
			s.queryTimeout = d
		}
	}
}

// WithRowLimit caps worst-measures and top-hospitals.
func WithRowLimit(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.rowLimit = n
		}
	}
}

// WithMinStateFacilities sets the strict lower bound on distinct facilities
// a state needs to appear in the per-state summaries.
func WithMinStateFacilities(n int) Option {
	return func(s *SQLStore) {
		if n >= 0 {
			s.minStateFacilities = n
		}
	}
}

// WithTopMeasure sets the measure ranked by TopHospitals.
func WithTopMeasure(measureID string) Option {
	return func(s *SQLStore) {
		if measureID != "" {
			s.topMeasure = measureID
		}
	}
}

// WithTierScheme replaces the patient-volume tiers. Invalid schemes are
// rejected by Open.
func WithTierScheme(scheme tiering.Scheme) Option {
	return func(s *SQLStore) {
		s.tiers = scheme
	}
}

// WithPool configures the database/sql connection pool.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(s *SQLStore) {
		s.maxOpen = maxOpen
		s.maxIdle = maxIdle
		s.maxLifetime = maxLifetime
	}
}
