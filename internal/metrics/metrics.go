// Package metrics provides lightweight, lock-free counters for
// tracking runtime statistics of a linecat server.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics across every session of a server.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	framesIn          atomic.Int64
	responsesOut      atomic.Int64
	failuresTotal     atomic.Int64

	mu             sync.RWMutex
	startTime      time.Time
	lastFailure    time.Time
	lastFailureMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open sessions.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime accepted-connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── Pipeline metrics ─────────────────────────────────────────────────

// FrameReceived records one complete request frame.
func (c *Collector) FrameReceived() {
	if c == nil {
		return
	}
	c.framesIn.Add(1)
}

// ResponseEmitted records one response line handed to the writer.
func (c *Collector) ResponseEmitted() {
	if c == nil {
		return
	}
	c.responsesOut.Add(1)
}

// TotalFrames returns the lifetime request-frame count.
func (c *Collector) TotalFrames() int64 {
	if c == nil {
		return 0
	}
	return c.framesIn.Load()
}

// TotalResponses returns the lifetime response-line count.
func (c *Collector) TotalResponses() int64 {
	if c == nil {
		return 0
	}
	return c.responsesOut.Load()
}

// ── Failure metrics ──────────────────────────────────────────────────

// RecordFailure increments the failure counter and stores the message.
func (c *Collector) RecordFailure(msg string) {
	if c == nil {
		return
	}
	c.failuresTotal.Add(1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.lastFailureMsg = msg
	c.mu.Unlock()
}

// FailureCount returns the total number of session failures recorded.
func (c *Collector) FailureCount() int64 {
	if c == nil {
		return 0
	}
	return c.failuresTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	UptimeSeconds     float64 `json:"uptime_seconds"`
	ConnectionsActive int64   `json:"connections_active"`
	ConnectionsTotal  int64   `json:"connections_total"`
	FramesIn          int64   `json:"frames_in"`
	ResponsesOut      int64   `json:"responses_out"`
	FailuresTotal     int64   `json:"failures_total"`
	LastFailure       string  `json:"last_failure,omitempty"`
}

// Snapshot captures the current values.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	start := c.startTime
	lastMsg := c.lastFailureMsg
	c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds:     time.Since(start).Seconds(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		FramesIn:          c.framesIn.Load(),
		ResponsesOut:      c.responsesOut.Load(),
		FailuresTotal:     c.failuresTotal.Load(),
		LastFailure:       lastMsg,
	}
}

// JSON renders the snapshot for debug logging.
func (c *Collector) JSON() string {
	b, err := json.Marshal(c.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(b)
}
