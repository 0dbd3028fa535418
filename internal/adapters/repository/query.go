package repository

import (
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/okian/careboard/internal/domain/types"
)

// Shared clauses. Caller-supplied values never appear here; they are bound
// through the builder's arguments.
const (
	fromPerformance         = "performance_data p"
	joinHospitals           = "hospitals h ON p.facility_id = h.facility_id"
	joinMeasures            = "measures m ON p.measure_id = m.measure_id"
	categorizedRecordsCount = "SELECT COUNT(*) FROM performance_data WHERE performance_category IS NOT NULL"
)

// statements returns a builder that renders bind parameters for the
// store's dialect.
func (s *SQLStore) statements() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.placeholderFormat())
}

// readmissionScope restricts b to scored READM/EDAC records.
func (s *SQLStore) readmissionScope(b sq.SelectBuilder) sq.SelectBuilder {
	prefixes := make(sq.Or, len(s.measurePrefixes))
	for i, prefix := range s.measurePrefixes {
		prefixes[i] = sq.Like{"p.measure_id": prefix + "%"}
	}
	return b.Where("p.score IS NOT NULL").Where(prefixes)
}

// byState adds the optional state filter on the joined hospitals.
func byState(b sq.SelectBuilder, f types.Filter) sq.SelectBuilder {
	if !f.HasState() {
		return b
	}
	return b.Where(sq.Eq{"h.state": f.State})
}

// withStateThreshold keeps states with strictly more distinct facilities
// than the configured minimum.
func (s *SQLStore) withStateThreshold(b sq.SelectBuilder) sq.SelectBuilder {
	return b.GroupBy("h.state").
		Having("COUNT(DISTINCT h.facility_id) > ?", s.minStateFacilities)
}

// tierCase renders the CASE expression that labels a record's volume tier.
// Bounds and labels come from the validated scheme, never from requests.
func (s *SQLStore) tierCase(column string) string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, t := range s.tiers {
		label := "'" + strings.ReplaceAll(t.Label, "'", "''") + "'"
		if t.Unbounded {
			sb.WriteString(" ELSE " + label)
			continue
		}
		sb.WriteString(" WHEN " + column + " <= " + strconv.FormatFloat(t.Max, 'f', -1, 64) + " THEN " + label)
	}
	sb.WriteString(" END")
	return sb.String()
}
