package aggregate

import (
	"sort"
	"time"
)

// bucket is one distinct value observed by a timer, together with how many
// times it was seen. Keeping values coalesced by equality, rather than as a
// flat append-only list, bounds memory when a timer receives many repeated
// measurements (a common case: request durations cluster at a handful of
// distinct millisecond values under load).
type bucket struct {
	value float64
	count int64
}

// TimerState accumulates a value-keyed multiset between flushes. At flush
// it reports count, sum, min, max and mean, then clears.
type TimerState struct {
	buckets []bucket
}

func (t *TimerState) Type() Type { return Timer }

// Apply records one reading at multiplicity 1. Unlike COUNTER, a timer's
// sample rate is not used to inflate its count: evstatsd's timer path never
// consumes the "@rate" suffix, so a sampled timer under-counts by design
// rather than being corrected back up to an estimate.
func (t *TimerState) Apply(s Sample) {
	i := sort.Search(len(t.buckets), func(i int) bool { return t.buckets[i].value >= s.Value })

	if i < len(t.buckets) && t.buckets[i].value == s.Value {
		t.buckets[i].count++
		return
	}

	t.buckets = append(t.buckets, bucket{})
	copy(t.buckets[i+1:], t.buckets[i:])
	t.buckets[i] = bucket{value: s.Value, count: 1}
}

func (t *TimerState) Render(time.Time) []Field {
	if len(t.buckets) == 0 {
		return nil
	}

	var count int64
	var sum, mean float64
	lower := t.buckets[0].value
	upper := t.buckets[len(t.buckets)-1].value

	for _, b := range t.buckets {
		count += b.count
		sum += b.value * float64(b.count)
	}
	if count > 0 {
		mean = sum / float64(count)
	}

	return []Field{
		{Suffix: "count", Value: float64(count)},
		{Suffix: "sum", Value: sum},
		{Suffix: "lower", Value: lower},
		{Suffix: "upper", Value: upper},
		{Suffix: "mean", Value: mean},
	}
}

func (t *TimerState) Reset() { t.buckets = t.buckets[:0] }

func (t *TimerState) Dispose() { t.buckets = nil }

// Values returns every individual reading since the last reset, in
// ascending order, each bucket's value repeated by its multiplicity. This
// is the live per-metric view the admin HTTP surface renders; it is
// distinct from Render's flush-time summary stats.
func (t *TimerState) Values() []float64 {
	var out []float64
	for _, b := range t.buckets {
		for i := int64(0); i < b.count; i++ {
			out = append(out, b.value)
		}
	}
	return out
}
