package sink

import (
	"sync/atomic"
	"time"

	"github.com/cc-metrics/statsgod/internal/registry"
	"github.com/cc-metrics/statsgod/internal/statsdlog"
)

// Flusher walks a registry on each tick, renders every live cell, writes
// the resulting records to a Client, and clears whatever state each type
// resets per flush (counters, timers, sets; gauges are untouched).
type Flusher struct {
	Registry *registry.Registry
	Client   *Client

	buffered atomic.Int64 // records queued by the most recent tick
	written  atomic.Int64 // records successfully flushed since startup
}

// Tick renders and writes every cell, then flushes the client once. A
// client that is currently disconnected simply drops the interval's
// records: statsgod holds no historical buffer to replay from (see the
// "No persistence" non-goal), matching the original daemon's behavior of
// silently skipping a flush tick while the graphite connection is down.
func (f *Flusher) Tick() {
	now := time.Now()
	ts := now.Unix()

	// A write failure (sink disconnected mid-tick) stops queuing further
	// records, but every cell still resets on schedule: reset timing is
	// independent of connection state, so a down sink must not leave stale
	// counters/timers/sets accumulating past this tick.
	writeFailed := false
	var queued int64
	f.Registry.Ascend(func(c *registry.Cell) bool {
		fields := c.Acc.Render(now)
		for _, field := range fields {
			if writeFailed {
				break
			}
			name := c.Name
			if field.Suffix != "" {
				name = name + "." + field.Suffix
			}
			if err := f.Client.WriteRecord(name, field.Value, ts); err != nil {
				statsdlog.Warnf("sink: %v", err)
				writeFailed = true
				break
			}
			queued++
		}
		c.Acc.Reset()
		return true
	})

	f.buffered.Store(queued)

	if queued == 0 {
		return
	}

	if err := f.Client.Flush(); err != nil {
		statsdlog.Warnf("sink: flush: %v", err)
		return
	}
	f.written.Add(queued)
}

// BufferDepths returns the record counts the self-telemetry sampler
// reports as graphite.buffer.input and graphite.buffer.output: how many
// records the last tick queued, and how many have been durably flushed to
// the wire since startup.
func (f *Flusher) BufferDepths() (input, output int64) {
	return f.buffered.Load(), f.written.Load()
}
