package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters is a point-in-time read of a bus's statistics.
type Counters struct {
	Sends      int64
	Asks       int64
	Broadcasts int64
	Observers  int64
}

// StatsCollector exposes live bus statistics as Prometheus metrics.
// Values are read from source on every scrape, so nothing is double-counted.
type StatsCollector struct {
	source func() Counters

	sends      *prometheus.Desc
	asks       *prometheus.Desc
	broadcasts *prometheus.Desc
	observers  *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

// NewStatsCollector creates a collector reading counters from source.
func NewStatsCollector(namespace string, constLabels prometheus.Labels, source func() Counters) *StatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, constLabels)
	}
	return &StatsCollector{
		source:     source,
		sends:      desc("sends_total", "Total number of send operations"),
		asks:       desc("asks_total", "Total number of ask operations"),
		broadcasts: desc("broadcasts_total", "Total number of broadcast operations"),
		observers:  desc("observers", "Number of currently registered observers"),
	}
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sends
	ch <- c.asks
	ch <- c.broadcasts
	ch <- c.observers
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source()
	ch <- prometheus.MustNewConstMetric(c.sends, prometheus.CounterValue, float64(s.Sends))
	ch <- prometheus.MustNewConstMetric(c.asks, prometheus.CounterValue, float64(s.Asks))
	ch <- prometheus.MustNewConstMetric(c.broadcasts, prometheus.CounterValue, float64(s.Broadcasts))
	ch <- prometheus.MustNewConstMetric(c.observers, prometheus.GaugeValue, float64(s.Observers))
}
