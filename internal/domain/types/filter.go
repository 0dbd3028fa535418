// Package types contains common types used across the application.
package types

import "strings"

// Filter narrows an aggregation to a single state. The zero value selects
// the whole nation.
type Filter struct {
	State string
}

// ForState builds a Filter from a raw query value. Codes are trimmed and
// upper-cased; blank input yields the national filter.
func ForState(raw string) Filter {
	return Filter{State: strings.ToUpper(strings.TrimSpace(raw))}
}

// HasState reports whether the filter restricts results to one state.
func (f Filter) HasState() bool {
	return f.State != ""
}
