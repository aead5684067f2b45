package aggregate

import "math"

// nan is the sentinel a gauge holds before it has ever received a sample.
// A gauge in this state renders nothing at flush: there is no "last value"
// to report yet, matching evstatsd's behavior of never emitting an
// unseeded gauge.
func nan() float64 { return math.NaN() }

func isNaN(v float64) bool { return math.IsNaN(v) }
