package metrics

import (
	"strings"
	"sync"
	"testing"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.FrameReceived()
	c.ResponseEmitted()
	c.ResponseEmitted()
	c.RecordFailure("crash requested")

	if got := c.ActiveConnections(); got != 1 {
		t.Errorf("ActiveConnections = %d, want 1", got)
	}
	if got := c.TotalConnections(); got != 2 {
		t.Errorf("TotalConnections = %d, want 2", got)
	}
	if got := c.TotalFrames(); got != 1 {
		t.Errorf("TotalFrames = %d, want 1", got)
	}
	if got := c.TotalResponses(); got != 2 {
		t.Errorf("TotalResponses = %d, want 2", got)
	}
	if got := c.FailureCount(); got != 1 {
		t.Errorf("FailureCount = %d, want 1", got)
	}

	snap := c.Snapshot()
	if snap.LastFailure != "crash requested" {
		t.Errorf("LastFailure = %q", snap.LastFailure)
	}
	if !strings.Contains(c.JSON(), `"failures_total":1`) {
		t.Errorf("JSON missing failure count: %s", c.JSON())
	}
}

func TestCollector_NilIsNoOp(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.FrameReceived()
	c.ResponseEmitted()
	c.RecordFailure("x")

	if c.ActiveConnections() != 0 || c.TotalConnections() != 0 ||
		c.TotalFrames() != 0 || c.TotalResponses() != 0 || c.FailureCount() != 0 {
		t.Error("nil collector must read as zero")
	}
	if snap := c.Snapshot(); snap != (Snapshot{}) {
		t.Errorf("nil snapshot = %+v", snap)
	}
}

func TestCollector_ConcurrentUse(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.ConnectionOpened()
				c.FrameReceived()
				c.ConnectionClosed()
			}
		}()
	}
	wg.Wait()

	if got := c.TotalConnections(); got != 800 {
		t.Errorf("TotalConnections = %d, want 800", got)
	}
	if got := c.ActiveConnections(); got != 0 {
		t.Errorf("ActiveConnections = %d, want 0", got)
	}
}
