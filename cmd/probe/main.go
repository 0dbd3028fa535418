package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/careboard/internal/probe"
)

// Default configuration constants.
const (
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		states        = flag.String("states", "", "Comma separated state codes probed besides the national scope")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		minFacilities = flag.Int("min-state-facilities", probe.DefaultMinFacilities, "Facility threshold the server applies to state summaries")
		logFile       = flag.String("log", "", "Also write log output to this file")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	// Setup logging
	closeLog, err := probe.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL:            *baseURL,
		States:             probe.ParseStates(*states),
		Workers:            *workers,
		Timeout:            *timeout,
		MinStateFacilities: *minFacilities,
		LogFile:            *logFile,
		Verbose:            *verbose,
	}

	if _, err := probe.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		cancel()
		closeLog()
		os.Exit(1)
	}
}
