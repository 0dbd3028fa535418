// Package probe exercises a running careboard server and checks the
// properties every analytics endpoint promises.
package probe

import "time"

// Config holds configuration for a probe run
type Config struct {
	BaseURL            string        // Base URL of the service
	States             []string      // State codes probed in addition to the national scope
	Workers            int           // Number of concurrent workers
	Timeout            time.Duration // HTTP request timeout
	MinStateFacilities int           // Facility threshold the server applies to state summaries
	LogFile            string        // Log file for probe output
	Verbose            bool          // Enable verbose logging
}

// Finding is one property a response violated.
type Finding struct {
	Scope    string // state code, or "national"
	Endpoint string
	Problem  string
}

// Stats holds probe statistics
type Stats struct {
	Requests  int
	Checks    int
	Findings  int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
