package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/types"
)

// Operation names, used in logs, metrics and QueryError.Op.
const (
	OpCountHospitals      = "kpis_hospital_count"
	OpAverageReadmission  = "kpis_average_score"
	OpWorstMeasures       = "worst_measures"
	OpNationalPerformance = "national_performance"
	OpPerformanceByVolume = "performance_by_volume"
	OpTopHospitals        = "top_hospitals"
	OpStateDetails        = "state_details"
	OpPerformanceByState  = "performance_by_state"
)

// CountHospitals counts distinct facilities in hospitals.
func (s *SQLStore) CountHospitals(ctx context.Context, f types.Filter) Result[int64] {
	q := byState(s.statements().
		Select("COUNT(DISTINCT h.facility_id) AS total_hospitals").
		From("hospitals h"), f)

	return collect(ctx, s, OpCountHospitals, q, func(rows *sql.Rows) (int64, error) {
		var n int64
		err := rows.Scan(&n)
		return n, err
	})
}

// AverageReadmissionScore averages scored READM/EDAC records.
func (s *SQLStore) AverageReadmissionScore(ctx context.Context, f types.Filter) Result[model.Score] {
	q := s.statements().
		Select(s.dialect.round("AVG(p.score)", 2) + " AS average_readmission_score").
		From(fromPerformance).
		Join(joinHospitals)
	q = byState(s.readmissionScope(q), f)

	return collect(ctx, s, OpAverageReadmission, q, func(rows *sql.Rows) (model.Score, error) {
		var avg sql.NullFloat64
		if err := rows.Scan(&avg); err != nil {
			return model.Score{}, err
		}
		if !avg.Valid {
			return model.Score{}, nil
		}
		return model.SomeScore(avg.Float64), nil
	})
}

// WorstMeasures ranks measures by average score, highest first. Order among
// equal averages is whatever the engine produces.
func (s *SQLStore) WorstMeasures(ctx context.Context, f types.Filter) Result[model.MeasureScore] {
	q := s.statements().
		Select(
			"m.measure_name",
			"COUNT(p.performance_id) AS number_of_hospitals_reporting",
			s.dialect.round("AVG(p.score)", 2)+" AS average_score",
		).
		From(fromPerformance).
		Join(joinHospitals).
		Join(joinMeasures)
	q = byState(s.readmissionScope(q), f).
		GroupBy("m.measure_name").
		OrderBy("average_score DESC").
		Limit(uint64(s.rowLimit))

	return collect(ctx, s, OpWorstMeasures, q, func(rows *sql.Rows) (model.MeasureScore, error) {
		var r model.MeasureScore
		err := rows.Scan(&r.MeasureName, &r.NumberOfHospitalsReporting, &r.AverageScore)
		return r, err
	})
}

// NationalPerformance reports each performance category's share of all
// categorized records. The share's denominator is always national and
// ignores the measure prefixes, even when the rows are filtered by state.
func (s *SQLStore) NationalPerformance(ctx context.Context, f types.Filter) Result[model.CategoryShare] {
	q := s.statements().
		Select(
			"p.performance_category",
			"COUNT(*) AS number_of_measures",
			s.dialect.round("100.0 * COUNT(*) / ("+categorizedRecordsCount+")", 1)+" AS percentage",
		).
		From(fromPerformance)
	if f.HasState() {
		q = byState(q.Join(joinHospitals), f)
	}
	q = q.Where("p.performance_category IS NOT NULL").
		Where("p.performance_category <> ''").
		GroupBy("p.performance_category").
		OrderBy("p.performance_category")

	return collect(ctx, s, OpNationalPerformance, q, func(rows *sql.Rows) (model.CategoryShare, error) {
		var r model.CategoryShare
		err := rows.Scan(&r.PerformanceCategory, &r.NumberOfMeasures, &r.Percentage)
		return r, err
	})
}

// PerformanceByVolume averages scores per patient-volume tier, ordered by
// tier label.
func (s *SQLStore) PerformanceByVolume(ctx context.Context, f types.Filter) Result[model.TierScore] {
	q := s.statements().
		Select(
			s.tierCase("p.denominator")+" AS tier",
			s.dialect.round("AVG(p.score)", 2)+" AS average_score",
		).
		From(fromPerformance).
		Join(joinHospitals).
		Where("p.denominator IS NOT NULL")
	q = byState(s.readmissionScope(q), f).
		GroupBy("tier").
		OrderBy("tier")

	return collect(ctx, s, OpPerformanceByVolume, q, func(rows *sql.Rows) (model.TierScore, error) {
		var r model.TierScore
		err := rows.Scan(&r.Tier, &r.AverageScore)
		return r, err
	})
}

// TopHospitals lists the highest scores on the configured measure.
func (s *SQLStore) TopHospitals(ctx context.Context, f types.Filter) Result[model.HospitalScore] {
	q := s.statements().
		Select("h.facility_name", "h.city_town", "h.state", "p.score").
		Distinct().
		From(fromPerformance).
		Join(joinHospitals).
		Where(sq.Eq{"p.measure_id": s.topMeasure}).
		Where("p.score IS NOT NULL")
	q = byState(q, f).
		OrderBy("p.score DESC").
		Limit(uint64(s.rowLimit))

	return collect(ctx, s, OpTopHospitals, q, func(rows *sql.Rows) (model.HospitalScore, error) {
		var r model.HospitalScore
		err := rows.Scan(&r.FacilityName, &r.CityTown, &r.State, &r.Score)
		return r, err
	})
}

// StateDetails summarizes every state with enough reporting facilities,
// best average first.
func (s *SQLStore) StateDetails(ctx context.Context) Result[model.StateDetail] {
	q := s.statements().
		Select(
			"h.state",
			"COUNT(DISTINCT h.facility_id) AS number_of_hospitals",
			"SUM(p.denominator) AS total_patient_volume",
			"MIN(p.score) AS min_score",
			"MAX(p.score) AS max_score",
			s.dialect.round("AVG(p.score)", 2)+" AS average_score",
		).
		From(fromPerformance).
		Join(joinHospitals)
	q = s.withStateThreshold(s.readmissionScope(q)).
		OrderBy("average_score DESC")

	return collect(ctx, s, OpStateDetails, q, func(rows *sql.Rows) (model.StateDetail, error) {
		var (
			r      model.StateDetail
			volume sql.NullFloat64
		)
		if err := rows.Scan(&r.State, &r.NumberOfHospitals, &volume, &r.MinScore, &r.MaxScore, &r.AverageScore); err != nil {
			return r, err
		}
		if volume.Valid {
			v := volume.Float64
			r.TotalPatientVolume = &v
		}
		return r, nil
	})
}

// PerformanceByState averages scores per state with enough reporting
// facilities. Rows come back in the engine's grouping order.
func (s *SQLStore) PerformanceByState(ctx context.Context) Result[model.StateScore] {
	q := s.statements().
		Select("h.state", s.dialect.round("AVG(p.score)", 2)+" AS average_state_score").
		From(fromPerformance).
		Join(joinHospitals)
	q = s.withStateThreshold(s.readmissionScope(q))

	return collect(ctx, s, OpPerformanceByState, q, func(rows *sql.Rows) (model.StateScore, error) {
		var r model.StateScore
		err := rows.Scan(&r.State, &r.AverageStateScore)
		return r, err
	})
}
