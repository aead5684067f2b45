// Package telemetry reports statsgod's own health back to the stats sink:
// a second, independent Graphite connection carrying a fixed set of
// internal metric names, so an operator can chart statsgod itself (ingest
// throughput, sink backlog, registry cardinality) the same way they chart
// everything else statsgod forwards. None of this is exposed over HTTP;
// the admin surface only ever serves user metrics.
package telemetry

import (
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cc-metrics/statsgod/internal/aggregate"
	"github.com/cc-metrics/statsgod/internal/ingest"
	"github.com/cc-metrics/statsgod/internal/registry"
	"github.com/cc-metrics/statsgod/internal/sink"
)

// Sampler owns the gauges tracking registry cardinality per type and the
// sink client the whole snapshot is written through each tick. The
// prometheus.Gauge values exist purely as statsgod's internal bookkeeping
// type for "a level that moves up and down"; nothing here is ever scraped,
// since the admin HTTP surface serves only user metrics.
type Sampler struct {
	client      *sink.Client
	ingestStats *ingest.Stats
	flusher     *sink.Flusher
	reg         *registry.Registry

	cardinality map[aggregate.Type]prometheus.Gauge
}

func New(client *sink.Client, ingestStats *ingest.Stats, flusher *sink.Flusher, reg *registry.Registry) *Sampler {
	gaugeFor := func(t aggregate.Type) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statsgod_registry_" + t.PathComponent(),
			Help: "Live cell count for this metric type.",
		})
	}

	return &Sampler{
		client:      client,
		ingestStats: ingestStats,
		flusher:     flusher,
		reg:         reg,
		cardinality: map[aggregate.Type]prometheus.Gauge{
			aggregate.Counter: gaugeFor(aggregate.Counter),
			aggregate.Gauge:   gaugeFor(aggregate.Gauge),
			aggregate.Timer:   gaugeFor(aggregate.Timer),
			aggregate.Set:     gaugeFor(aggregate.Set),
		},
	}
}

// Tick computes one interval's internal metrics and writes them through the
// stats sink client. Like the main flusher, a disconnected stats client
// simply drops the interval.
func (s *Sampler) Tick(ts int64) {
	in := s.ingestStats.Snapshot()

	var bytesTx, metricsTx int64
	var bufIn, bufOut int64
	if s.flusher != nil {
		bytesTx, metricsTx = s.flusher.Client.Counters()
		if s.flusher.Client.State() == sink.Connected {
			bufIn, bufOut = s.flusher.BufferDepths()
		}
	}

	for t, g := range s.cardinality {
		g.Set(float64(s.reg.CountByType(t)))
	}

	records := map[string]float64{
		"graphite.bytes.tx":      float64(bytesTx),
		"graphite.metrics.tx":    float64(metricsTx),
		"graphite.buffer.input":  float64(bufIn),
		"graphite.buffer.output": float64(bufOut),
		"bytes.rx":               float64(in.BytesIn),
		"packets.rx":             float64(in.PacketsIn),
		"metrics.rx":             float64(in.MetricsIn),
		"search.mus":             in.LookupMicros,
		"counters":               gaugeValue(s.cardinality[aggregate.Counter]),
		"timers":                 gaugeValue(s.cardinality[aggregate.Timer]),
		"gauges":                 gaugeValue(s.cardinality[aggregate.Gauge]),
		"sets":                   gaugeValue(s.cardinality[aggregate.Set]),
	}

	for name, value := range records {
		_ = s.client.WriteRecord(name, value, ts)
	}
	_ = s.client.Flush()
}

func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
