package probe

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/tiering"
)

// Averages are rounded to two decimals while min and max are not.
const roundingSlack = 0.005

// verifyList flags a list endpoint that answered null instead of [].
func verifyList[T any](rows []T) []string {
	if rows == nil {
		return []string{"answered null instead of an array"}
	}
	return nil
}

// verifyKPIs checks the headline pair.
func verifyKPIs(k model.KPIs) []string {
	var problems []string
	if k.TotalHospitals < 0 {
		problems = append(problems, fmt.Sprintf("negative hospital count %d", k.TotalHospitals))
	}
	if k.AverageReadmissionScore.Valid && math.IsNaN(k.AverageReadmissionScore.Value) {
		problems = append(problems, "average readmission score is NaN")
	}
	return problems
}

// verifyRanked checks a capped ranking sorted by descending score.
func verifyRanked(scores []float64) []string {
	var problems []string
	if len(scores) > MaxRankedRows {
		problems = append(problems, fmt.Sprintf("%d rows, want at most %d", len(scores), MaxRankedRows))
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			problems = append(problems, fmt.Sprintf("row %d (%.2f) ranks above row %d (%.2f)", i, scores[i], i-1, scores[i-1]))
		}
	}
	return problems
}

// verifyTiers checks tier labels come from the scheme and are listed
// alphabetically, each at most once.
func verifyTiers(rows []model.TierScore, scheme tiering.Scheme) []string {
	known := make(map[string]bool, len(scheme))
	for _, l := range scheme.Labels() {
		known[l] = true
	}
	var problems []string
	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		if !known[r.Tier] {
			problems = append(problems, fmt.Sprintf("unknown tier %q", r.Tier))
		}
		if seen[r.Tier] {
			problems = append(problems, fmt.Sprintf("tier %q listed twice", r.Tier))
		}
		seen[r.Tier] = true
		if i > 0 && r.Tier < rows[i-1].Tier {
			problems = append(problems, fmt.Sprintf("tier %q listed after %q", r.Tier, rows[i-1].Tier))
		}
	}
	return problems
}

// verifyShares checks each percentage is a share and, nationally, that the
// shares add up to the whole.
func verifyShares(rows []model.CategoryShare, national bool) []string {
	var problems []string
	sum := 0.0
	for _, r := range rows {
		if r.Percentage < 0 || r.Percentage > FullShare {
			problems = append(problems, fmt.Sprintf("%q share %.1f outside 0..100", r.PerformanceCategory, r.Percentage))
		}
		if r.PerformanceCategory == "" {
			problems = append(problems, "empty performance category")
		}
		sum += r.Percentage
	}
	if national && len(rows) > 0 && math.Abs(sum-FullShare) > PercentageTolerance {
		problems = append(problems, fmt.Sprintf("national shares sum to %.1f", sum))
	}
	if !national && sum > FullShare+PercentageTolerance {
		problems = append(problems, fmt.Sprintf("state shares sum to %.1f, above the national whole", sum))
	}
	return problems
}

// verifyStateDetails checks the facility threshold, the descending
// average order and min <= average <= max for every state.
func verifyStateDetails(rows []model.StateDetail, minFacilities int) []string {
	var problems []string
	for i, r := range rows {
		if r.NumberOfHospitals <= int64(minFacilities) {
			problems = append(problems, fmt.Sprintf("%s has %d facilities, want more than %d", r.State, r.NumberOfHospitals, minFacilities))
		}
		if r.AverageScore < r.MinScore-roundingSlack || r.AverageScore > r.MaxScore+roundingSlack {
			problems = append(problems, fmt.Sprintf("%s average %.2f outside [%.2f, %.2f]", r.State, r.AverageScore, r.MinScore, r.MaxScore))
		}
		if i > 0 && r.AverageScore > rows[i-1].AverageScore {
			problems = append(problems, fmt.Sprintf("%s ranks above %s with a higher average", r.State, rows[i-1].State))
		}
	}
	return problems
}

// verifyStateScores checks each state appears once and, when details are
// available, that both summaries cover the same states.
func verifyStateScores(rows []model.StateScore, details []model.StateDetail) []string {
	var problems []string
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.State] {
			problems = append(problems, fmt.Sprintf("%s listed twice", r.State))
		}
		seen[r.State] = true
	}
	if details == nil {
		return problems
	}
	want := make([]string, 0, len(details))
	for _, d := range details {
		want = append(want, d.State)
	}
	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.State)
	}
	sort.Strings(want)
	sort.Strings(got)
	if fmt.Sprint(want) != fmt.Sprint(got) {
		problems = append(problems, fmt.Sprintf("states %v differ from state details %v", got, want))
	}
	return problems
}
