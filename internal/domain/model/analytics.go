// Package model contains the read shapes returned by the analytics queries.
// JSON field names are part of the public API consumed by the dashboard.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NotAvailable is written in place of a score that could not be computed.
const NotAvailable = "N/A"

var notAvailableJSON = []byte(`"` + NotAvailable + `"`)

// Score is an optional aggregate. The zero value is "not available" and
// serializes as the string "N/A" rather than null or 0.
type Score struct {
	Value float64
	Valid bool
}

// SomeScore wraps a computed value.
func SomeScore(v float64) Score { return Score{Value: v, Valid: true} }

// MarshalJSON implements json.Marshaler.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return notAvailableJSON, nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON implements json.Unmarshaler. It accepts a number, null or "N/A".
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, notAvailableJSON) {
		*s = Score{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	*s = SomeScore(v)
	return nil
}

// String renders the score the way the API does.
func (s Score) String() string {
	if !s.Valid {
		return NotAvailable
	}
	return fmt.Sprintf("%g", s.Value)
}

// KPIs is the headline pair shown at the top of the dashboard.
type KPIs struct {
	TotalHospitals          int64 `json:"total_hospitals"`
	AverageReadmissionScore Score `json:"average_readmission_score"`
}

// MeasureScore is one row of the worst-measures ranking.
type MeasureScore struct {
	MeasureName                string  `json:"measure_name"`
	NumberOfHospitalsReporting int64   `json:"number_of_hospitals_reporting"`
	AverageScore               float64 `json:"average_score"`
}

// CategoryShare is one performance category and its share of all categorized records.
type CategoryShare struct {
	PerformanceCategory string  `json:"performance_category"`
	NumberOfMeasures    int64   `json:"number_of_measures"`
	Percentage          float64 `json:"percentage"`
}

// TierScore is the average score of one patient-volume tier.
type TierScore struct {
	Tier         string  `json:"tier"`
	AverageScore float64 `json:"average_score"`
}

// HospitalScore is one facility's score on the heart-failure readmission measure.
type HospitalScore struct {
	FacilityName string  `json:"facility_name"`
	CityTown     string  `json:"city_town"`
	State        string  `json:"state"`
	Score        float64 `json:"score"`
}

// StateDetail summarizes one state's readmission records.
// TotalPatientVolume is nil when no record in the state reports a denominator.
type StateDetail struct {
	State              string   `json:"state"`
	NumberOfHospitals  int64    `json:"number_of_hospitals"`
	TotalPatientVolume *float64 `json:"total_patient_volume"`
	MinScore           float64  `json:"min_score"`
	MaxScore           float64  `json:"max_score"`
	AverageScore       float64  `json:"average_score"`
}

// StateScore is one state's average readmission score.
type StateScore struct {
	State             string  `json:"state"`
	AverageStateScore float64 `json:"average_state_score"`
}
