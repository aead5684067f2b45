package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounterAccumulatesAndResets(t *testing.T) {
	c := New(Counter)
	c.Apply(Sample{Value: 3, Rate: 1})
	c.Apply(Sample{Value: 2, Rate: 1})

	fields := c.Render(time.Now())
	assert.Equal(t, []Field{{Value: 5}}, fields)

	c.Reset()
	assert.Equal(t, []Field{{Value: 0}}, c.Render(time.Now()))
}

func TestCounterRateAdjustsContribution(t *testing.T) {
	c := New(Counter)
	c.Apply(Sample{Value: 1, Rate: 0.1})

	fields := c.Render(time.Now())
	assert.InDelta(t, 10, fields[0].Value, 0.0001)
}

func TestGaugeReplacesAndNeverResets(t *testing.T) {
	g := New(Gauge)
	assert.Nil(t, g.Render(time.Now()), "unseeded gauge renders nothing")

	g.Apply(Sample{Value: 10})
	assert.Equal(t, []Field{{Value: 10}}, g.Render(time.Now()))

	g.Reset()
	assert.Equal(t, []Field{{Value: 10}}, g.Render(time.Now()), "gauge survives reset")
}

func TestGaugeSignedDelta(t *testing.T) {
	g := New(Gauge)
	g.Apply(Sample{Value: 10})
	g.Apply(Sample{Value: 3, Signed: true, Sign: -1})
	g.Apply(Sample{Value: 1, Signed: true, Sign: 1})

	assert.Equal(t, []Field{{Value: 8}}, g.Render(time.Now()))
}

func TestGaugeSignedDeltaSubtractsNotAdds(t *testing.T) {
	g := New(Gauge)
	g.Apply(Sample{Value: 343})
	g.Apply(Sample{Value: 3, Signed: true, Sign: -1})

	assert.Equal(t, []Field{{Value: 340}}, g.Render(time.Now()))
}

func TestGaugeSignedDeltaWithoutPriorValue(t *testing.T) {
	g := New(Gauge)
	g.Apply(Sample{Value: 5, Signed: true, Sign: 1})

	assert.Equal(t, []Field{{Value: 5}}, g.Render(time.Now()))
}

func TestTimerRendersStatsAndClears(t *testing.T) {
	tm := New(Timer)
	for _, v := range []float64{10, 20, 20, 30} {
		tm.Apply(Sample{Value: v, Rate: 1})
	}

	fields := tm.Render(time.Now())
	byName := map[string]float64{}
	for _, f := range fields {
		byName[f.Suffix] = f.Value
	}

	assert.Equal(t, float64(4), byName["count"])
	assert.Equal(t, float64(80), byName["sum"])
	assert.Equal(t, float64(10), byName["lower"])
	assert.Equal(t, float64(30), byName["upper"])
	assert.Equal(t, float64(20), byName["mean"])

	tm.Reset()
	assert.Nil(t, tm.Render(time.Now()))
}

func TestTimerRateDoesNotInflateCount(t *testing.T) {
	tm := New(Timer)
	tm.Apply(Sample{Value: 5, Rate: 0.5})

	fields := tm.Render(time.Now())
	byName := map[string]float64{}
	for _, f := range fields {
		byName[f.Suffix] = f.Value
	}
	assert.Equal(t, float64(1), byName["count"], "timers record multiplicity 1 regardless of sample rate")
}

func TestTimerValuesExpandByMultiplicity(t *testing.T) {
	tm := &TimerState{}
	tm.Apply(Sample{Value: 20})
	tm.Apply(Sample{Value: 10})
	tm.Apply(Sample{Value: 20})

	assert.Equal(t, []float64{10, 20, 20}, tm.Values())
}

func TestSetValuesReturnsSortedMembers(t *testing.T) {
	s := &SetState{}
	s.Apply(Sample{Token: "bob"})
	s.Apply(Sample{Token: "alice"})
	s.Apply(Sample{Token: "bob"})

	assert.Equal(t, []string{"alice", "bob"}, s.Values())
}

func TestSetCountsDistinctTokensAndClears(t *testing.T) {
	s := New(Set)
	s.Apply(Sample{Token: "alice"})
	s.Apply(Sample{Token: "bob"})
	s.Apply(Sample{Token: "alice"})

	assert.Equal(t, []Field{{Suffix: "count", Value: 2}}, s.Render(time.Now()))

	s.Reset()
	assert.Equal(t, []Field{{Suffix: "count", Value: 0}}, s.Render(time.Now()))
}

func TestTypeFromCode(t *testing.T) {
	cases := map[string]Type{"c": Counter, "g": Gauge, "ms": Timer, "s": Set}
	for code, want := range cases {
		got, ok := TypeFromCode(code)
		assert.True(t, ok, code)
		assert.Equal(t, want, got, code)
	}

	for _, bad := range []string{"cg", "gc", "msg", "", "x"} {
		_, ok := TypeFromCode(bad)
		assert.False(t, ok, bad)
	}
}
