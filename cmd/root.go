// Package cmd wires up the CLI flags and dispatches to the server or
// client mode.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"linecat/config"
	"linecat/internal/metrics"
	"linecat/internal/server"
	"linecat/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X linecat/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the appropriate linecat mode.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("linecat", flag.ContinueOnError)

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Listen mode (serve the line protocol)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port number")
	var v4, v6 bool
	fs.BoolVarP(&v4, "ipv4", "4", false, "Use IPv4 addresses only")
	fs.BoolVarP(&v6, "ipv6", "6", false, "Use IPv6 addresses only")
	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Connection timeout in seconds")

	// ── pipeline ─────────────────────────────────────────────────
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Max bytes per socket read")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("linecat %s\n", version)
		return nil
	}

	if v4 && v6 {
		return fmt.Errorf("-4 and -6 are mutually exclusive")
	}
	if v4 {
		cfg.Family = config.FamilyIPv4
	}
	if v6 {
		cfg.Family = config.FamilyIPv6
	}
	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	if cfg.Listen {
		stats := metrics.New()
		srv := server.New(cfg, logger, stats)
		err := srv.Run(ctx)
		logger.Debug("final metrics: %s", stats.JSON())
		return err
	}

	client := &server.Client{Config: cfg, Logger: logger}
	return client.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		if !cfg.Listen {
			return fmt.Errorf("host required in connect mode (use --help for usage)")
		}
	case 1:
		cfg.Host = remaining[0]
	case 2:
		cfg.Host = remaining[0]
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments")
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Linecat - line-oriented TCP toolkit v%s

Serves (or talks to) a CRLF line protocol with virtual sub-connection
bookkeeping over a backpressured streaming pipeline.

Usage:
  linecat [options] <host> [port]             Connect
  linecat -l [options] [host [port]]          Listen

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  linecat -l                                  Serve on 127.0.0.1:9999
  linecat -l -p 8080 0.0.0.0                  Serve on all interfaces
  linecat 127.0.0.1 9999                      Interactive client
  linecat -4 -w 5 example.com 9999            IPv4 only, 5s timeout
`)
}
