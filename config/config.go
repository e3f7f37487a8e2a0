// Package config defines the runtime configuration for linecat and
// provides helpers for parsing ports and address-family preferences.
package config

import (
	"fmt"
	"strconv"
	"time"
)

// Address-family preference for listening and connecting.
const (
	FamilyAny  = "any"
	FamilyIPv4 = "ipv4"
	FamilyIPv6 = "ipv6"
)

// Config holds every tuneable for a single linecat run.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host    string
	Port    int
	Listen  bool
	Family  string // any | ipv4 | ipv6
	Timeout time.Duration

	// ── Pipeline ─────────────────────────────────────────────────────
	ChunkSize int // max bytes per socket read

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required (use --help for usage)")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	switch c.Family {
	case FamilyAny, FamilyIPv4, FamilyIPv6:
	default:
		return fmt.Errorf("invalid address family %q (want any, ipv4 or ipv6)", c.Family)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
