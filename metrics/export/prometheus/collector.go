package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrEthical07/authkit"
)

const latencyName = "authkit_validate_latency_seconds"

// MetricsSource is implemented by *authkit.Engine.
type MetricsSource interface {
	MetricsSnapshot() authkit.MetricsSnapshot
}

type counterDesc struct {
	id   authkit.MetricID
	desc *prometheus.Desc
}

// Collector is a prometheus.Collector over an authkit metrics snapshot.
type Collector struct {
	source   MetricsSource
	counters []counterDesc
	latency  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(source MetricsSource) *Collector {
	defs := authkit.CounterDefs()
	c := &Collector{
		source:   source,
		counters: make([]counterDesc, 0, len(defs)),
		latency: prometheus.NewDesc(latencyName,
			"Access token validation latency, including the user lookup.", nil, nil),
	}
	for _, def := range defs {
		c.counters = append(c.counters, counterDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range c.counters {
		ch <- cd.desc
	}
	ch <- c.latency
}

// Collect emits nothing when the engine has metrics disabled.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	snap := c.source.MetricsSnapshot()
	if len(snap.Counters) == 0 {
		return
	}

	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(snap.Counters[cd.id]))
	}

	if len(snap.LatencyBuckets) == 0 {
		return
	}
	buckets, count := cumulative(snap.LatencyBuckets)
	ch <- prometheus.MustNewConstHistogram(c.latency, count, snap.LatencySumSeconds, buckets)
}

// cumulative converts per-bucket counts into the upper-bound keyed running
// totals that const histograms expect. The last bucket is +Inf and only
// contributes to the total count.
func cumulative(perBucket []uint64) (map[float64]uint64, uint64) {
	bounds := authkit.LatencyBucketBounds
	out := make(map[float64]uint64, len(bounds))

	var running uint64
	for i, n := range perBucket {
		running += n
		if i < len(bounds) {
			out[bounds[i]] = running
		}
	}
	return out, running
}

// Handler serves the source's metrics on a private registry.
func Handler(source MetricsSource) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(source))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
