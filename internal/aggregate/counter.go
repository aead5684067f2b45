package aggregate

import "time"

// CounterState accumulates a rate-adjusted sum between flushes. Every flush
// emits the accumulated total and resets to zero, per the statsd counter
// semantics: a counter with no samples in a window reports 0, not its last
// value.
type CounterState struct {
	total float64
}

func (c *CounterState) Type() Type { return Counter }

func (c *CounterState) Apply(s Sample) {
	rate := s.Rate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	c.total += s.Value * (1 / rate)
}

func (c *CounterState) Render(time.Time) []Field {
	return []Field{{Value: c.total}}
}

func (c *CounterState) Reset() { c.total = 0 }

func (c *CounterState) Dispose() {}
