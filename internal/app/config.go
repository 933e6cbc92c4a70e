package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Args configures the directory. Every flag can also come from the
// environment, which .env populates.
type Args struct {
	Latency   time.Duration `arg:"--latency,env:DIRECTORY_LATENCY" default:"300ms" help:"simulated store round trip"`
	Debounce  time.Duration `arg:"--debounce,env:DIRECTORY_DEBOUNCE" default:"200ms" help:"quiet period before a search term applies"`
	FaultRate float64       `arg:"--fault-rate,env:DIRECTORY_FAULT_RATE" default:"0" help:"probability in [0,1] that a store call fails"`
	LogLevel  string        `arg:"--log-level,env:LOG_LEVEL" default:"info" help:"trace, debug, info, warn or error"`
	NoSeed    bool          `arg:"--no-seed,env:DIRECTORY_NO_SEED" help:"start with an empty directory"`
	Watch     bool          `arg:"--watch,env:DIRECTORY_WATCH" help:"print a line whenever the list changes"`
}

func (Args) Description() string {
	return "customer directory console"
}

func (args Args) Valid() error {
	invalid := make([]string, 0)
	if args.Latency < 0 {
		invalid = append(invalid, "DIRECTORY_LATENCY")
	}
	if args.Debounce < 0 {
		invalid = append(invalid, "DIRECTORY_DEBOUNCE")
	}
	if args.FaultRate < 0 || args.FaultRate > 1 {
		invalid = append(invalid, "DIRECTORY_FAULT_RATE")
	}
	if _, err := args.Level(); err != nil {
		invalid = append(invalid, "LOG_LEVEL")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (args Args) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(args.LogLevel)))
}
