// Package aggregate implements the four metric state machines statsgod
// maintains in memory: counters, gauges, timers and sets. Each accumulator
// consumes samples of its own type and renders a flush-time snapshot in the
// exact field order the Graphite sink and the HTTP admin surface expect.
package aggregate

import "time"

// Type identifies which of the four accumulator kinds a registry cell holds.
type Type int

const (
	Counter Type = iota
	Gauge
	Timer
	Set
)

// code is the exact wire type code a sample carries, per the ingest grammar.
func (t Type) code() string {
	switch t {
	case Counter:
		return "c"
	case Gauge:
		return "g"
	case Timer:
		return "ms"
	case Set:
		return "s"
	default:
		return "?"
	}
}

func (t Type) String() string {
	switch t {
	case Counter:
		return "counter"
	case Gauge:
		return "gauge"
	case Timer:
		return "timer"
	case Set:
		return "set"
	default:
		return "unknown"
	}
}

// PathComponent is the plural segment the HTTP admin routes and the
// self-telemetry counters use: /counters/<name>, /gauges/<name>, and so on.
func (t Type) PathComponent() string {
	switch t {
	case Counter:
		return "counters"
	case Gauge:
		return "gauges"
	case Timer:
		return "timers"
	case Set:
		return "sets"
	default:
		return "unknown"
	}
}

// TypeFromCode resolves a wire type code to a Type. ok is false for any code
// that isn't exactly one of "c", "ms", "g" or "s".
func TypeFromCode(code string) (Type, bool) {
	switch code {
	case "c":
		return Counter, true
	case "g":
		return Gauge, true
	case "ms":
		return Timer, true
	case "s":
		return Set, true
	default:
		return 0, false
	}
}

// Sample is a single decoded measurement ready to be applied to a cell.
type Sample struct {
	Name  string
	Type  Type
	Value float64
	// Signed marks a gauge delta ("+"/"-" prefixed value) as opposed to an
	// absolute replacement. Ignored for every other type.
	Signed bool
	Sign   int8 // +1 or -1, meaningful only when Signed is true
	// Token carries the raw textual payload for SET samples, where the
	// "value" is an opaque deduplication key rather than a number.
	Token string
	// Rate is the sampling rate a COUNTER or TIMER sample was taken at; 1
	// when no "@rate" suffix was present.
	Rate float64
}

// Field is one name/value pair of a flush-time render, in emission order.
type Field struct {
	Suffix string // appended to the metric's dotted name, empty for bare value
	Value  float64
}

// Accumulator is the behavior every metric type implements: absorb a
// sample, answer its current contribution at flush time, and reset or tear
// down whatever per-flush state it keeps.
type Accumulator interface {
	Type() Type
	Apply(s Sample)
	// Render returns the flush-time fields in emission order. now is the
	// flush timestamp, used by accumulators that report it back (none do
	// today, but timers take it to decide staleness in future revisions).
	Render(now time.Time) []Field
	// Reset clears whatever state resets every flush (counters, timers,
	// sets). Gauges are a no-op here; they only change via Apply.
	Reset()
	// Dispose releases any accumulator-owned resources. Matters for timers
	// and sets, whose backing slices should not be retained after a DELETE.
	Dispose()
}

// New constructs a zero-valued accumulator of the given type.
func New(t Type) Accumulator {
	switch t {
	case Counter:
		return &CounterState{}
	case Gauge:
		return &GaugeState{value: nan()}
	case Timer:
		return &TimerState{}
	case Set:
		return &SetState{}
	default:
		panic("aggregate: unknown type")
	}
}
