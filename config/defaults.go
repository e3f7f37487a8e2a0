package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultHost is the address the demo server binds to.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the demo server port.
	DefaultPort = 9999

	// DefaultChunkSize is the maximum number of bytes pulled from a
	// socket in one read.  Small enough that backpressure kicks in
	// quickly, large enough to amortise syscall cost for line traffic.
	DefaultChunkSize = 4096

	// DefaultConnTimeout is the TCP connection timeout for connect mode.
	DefaultConnTimeout = 30 * time.Second
)

// Default returns a Config populated with the build-time defaults.
func Default() *Config {
	return &Config{
		Host:      DefaultHost,
		Port:      DefaultPort,
		Family:    FamilyAny,
		ChunkSize: DefaultChunkSize,
	}
}
