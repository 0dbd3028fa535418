// Package repository is the Query Layer: parameterized aggregation queries
// over the hospitals, performance_data and measures tables.
package repository

import (
	"context"
	"database/sql"

	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/types"
)

// Result carries the rows of one aggregation or the fault that prevented
// them. A faulted Result has no rows; callers that must never fail collapse
// it with OrEmpty at the serialization boundary.
type Result[T any] struct {
	Rows []T
	Err  error
}

// Faulted reports whether the query failed.
func (r Result[T]) Faulted() bool { return r.Err != nil }

// OrEmpty returns the rows, or a non-nil empty slice when there are none.
func (r Result[T]) OrEmpty() []T {
	if r.Rows == nil {
		return []T{}
	}
	return r.Rows
}

// First returns the first row if there is one.
func (r Result[T]) First() (T, bool) {
	if len(r.Rows) == 0 {
		var zero T
		return zero, false
	}
	return r.Rows[0], true
}

// Store provides read access to the hospital-performance projection.
// Query methods never return a Go error directly: faults are logged and
// carried in Result.Err.
type Store interface {
	// CountHospitals counts distinct facilities, optionally within one state.
	CountHospitals(ctx context.Context, f types.Filter) Result[int64]
	// AverageReadmissionScore averages readmission scores rounded to 2 places.
	// It yields one row; the score is not available when nothing qualifies.
	AverageReadmissionScore(ctx context.Context, f types.Filter) Result[model.Score]
	WorstMeasures(ctx context.Context, f types.Filter) Result[model.MeasureScore]
	NationalPerformance(ctx context.Context, f types.Filter) Result[model.CategoryShare]
	PerformanceByVolume(ctx context.Context, f types.Filter) Result[model.TierScore]
	TopHospitals(ctx context.Context, f types.Filter) Result[model.HospitalScore]
	StateDetails(ctx context.Context) Result[model.StateDetail]
	PerformanceByState(ctx context.Context) Result[model.StateScore]

	// Ping checks database connectivity.
	Ping(ctx context.Context) error
	// Stats reports connection pool statistics.
	Stats() sql.DBStats
	Close() error
}
