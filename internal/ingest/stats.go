package ingest

import "sync/atomic"

// Stats are the counters statsgod's own self-telemetry sampler reads back
// out; see internal/telemetry. Every field is updated with atomic ops from
// the UDP read loop and read back without locking from the flush tick, so
// a momentary skew between related counters (bytes vs. packets) is
// acceptable and matches what the counters measure: independent tallies,
// not a single atomic snapshot.
type Stats struct {
	bytesIn      int64
	packetsIn    int64
	metricsIn    int64
	parseErrors  int64
	lookupNanos  int64
	lookupCalls  int64
}

func (s *Stats) addBytes(n int)   { atomic.AddInt64(&s.bytesIn, int64(n)) }
func (s *Stats) addPacket()       { atomic.AddInt64(&s.packetsIn, 1) }
func (s *Stats) addMetric()       { atomic.AddInt64(&s.metricsIn, 1) }
func (s *Stats) addParseError()   { atomic.AddInt64(&s.parseErrors, 1) }
func (s *Stats) addLookup(ns int64) {
	atomic.AddInt64(&s.lookupNanos, ns)
	atomic.AddInt64(&s.lookupCalls, 1)
}

// Snapshot is a point-in-time, non-atomic read of every counter, each reset
// to zero as part of the read (the same semantics a flush-and-clear
// accumulator has, since self-telemetry reports per-interval activity, not
// a running total).
type Snapshot struct {
	BytesIn     int64
	PacketsIn   int64
	MetricsIn   int64
	ParseErrors int64
	// LookupMicros is the total time spent resolving samples' registry
	// cells, in microseconds, summed over every lookup since the last
	// snapshot.
	LookupMicros float64
}

func (s *Stats) Snapshot() Snapshot {
	atomic.StoreInt64(&s.lookupCalls, 0)
	nanos := atomic.SwapInt64(&s.lookupNanos, 0)

	micros := float64(nanos) / 1000

	return Snapshot{
		BytesIn:      atomic.SwapInt64(&s.bytesIn, 0),
		PacketsIn:    atomic.SwapInt64(&s.packetsIn, 0),
		MetricsIn:    atomic.SwapInt64(&s.metricsIn, 0),
		ParseErrors:  atomic.SwapInt64(&s.parseErrors, 0),
		LookupMicros: micros,
	}
}
