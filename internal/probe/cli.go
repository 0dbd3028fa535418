package probe

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/careboard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well. It returns a func that closes the file.
func SetupLogging(logFile string, verbose bool) (func(), error) {
	var (
		w       io.Writer = os.Stdout
		closeFn           = func() {}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return closeFn, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closeFn = func() { _ = file.Close() }
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		closeFn()
		return func() {}, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closeFn, nil
}

// ParseStates splits a comma separated list of state codes, dropping blanks
// and uppercasing the rest.
func ParseStates(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Careboard Probe
===============

Calls every analytics endpoint of a running careboard server and checks the
properties the dashboard relies on: rankings capped at 5 and sorted
descending, tier labels in alphabetical order, national shares summing to
100%, state summaries above the facility threshold, [] instead of null.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -states string
        Comma separated state codes probed besides the national scope (e.g. "CA,TX")
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -min-state-facilities int
        Facility threshold the server applies to state summaries (default 20)
  -log string
        Also write log output to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Probe the national scope only
  go run ./cmd/probe

  # Probe three states against another host
  go run ./cmd/probe -url http://localhost:8080 -states CA,TX,NY

  # Keep a log of the run
  go run ./cmd/probe -states CA -log probe.log -verbose
`)
}
