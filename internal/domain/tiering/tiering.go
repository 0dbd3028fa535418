// Package tiering buckets performance records by patient volume (the
// record's reporting denominator).
package tiering

import (
	"errors"
	"fmt"
	"strings"
)

// Tier labels used by the default scheme.
const (
	Small     = "Small"
	Medium    = "Medium"
	Large     = "Large"
	VeryLarge = "Very Large"
)

// Sentinel kinds for tier scheme validation.
var (
	ErrEmptyScheme  = errors.New("tier scheme is empty")
	ErrInvalidTier  = errors.New("invalid tier")
	ErrUnboundedEnd = errors.New("last tier must be unbounded")
)

// Tier is one volume bucket. Max is the inclusive upper bound; the final
// tier of a scheme is Unbounded and catches everything above the previous bound.
type Tier struct {
	Label     string
	Max       float64
	Unbounded bool
}

// Scheme is an ordered list of tiers, smallest first.
type Scheme []Tier

// Default returns the four-tier scheme: <=100, <=500, <=1000, above.
func Default() Scheme {
	return Scheme{
		{Label: Small, Max: 100},
		{Label: Medium, Max: 500},
		{Label: Large, Max: 1000},
		{Label: VeryLarge, Unbounded: true},
	}
}

// Validate checks that bounds strictly increase, labels are unique and
// non-empty, and only the last tier is unbounded.
func (s Scheme) Validate() error {
	if len(s) == 0 {
		return ErrEmptyScheme
	}
	seen := make(map[string]struct{}, len(s))
	for i, t := range s {
		label := strings.TrimSpace(t.Label)
		if label == "" {
			return fmt.Errorf("%w: tier %d has no label", ErrInvalidTier, i)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidTier, label)
		}
		seen[label] = struct{}{}

		last := i == len(s)-1
		if t.Unbounded != last {
			if last {
				return ErrUnboundedEnd
			}
			return fmt.Errorf("%w: only the last tier may be unbounded (%q)", ErrInvalidTier, label)
		}
		if i > 0 && !t.Unbounded && t.Max <= s[i-1].Max {
			return fmt.Errorf("%w: bound of %q must exceed %g", ErrInvalidTier, label, s[i-1].Max)
		}
	}
	return nil
}

// Classify returns the label of the tier containing denominator.
func (s Scheme) Classify(denominator float64) string {
	for _, t := range s {
		if t.Unbounded || denominator <= t.Max {
			return t.Label
		}
	}
	return ""
}

// Labels returns the tier labels in scheme order.
func (s Scheme) Labels() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.Label
	}
	return out
}
