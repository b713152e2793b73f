package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// Collector returns a Prometheus collector that reads the bus's live Stats
// on every scrape. Metrics are prefixed with namespace and labelled with the
// bus type.
func (b *Bus) Collector(namespace string) prometheus.Collector {
	return observability.NewStatsCollector(namespace,
		prometheus.Labels{"type": string(b.stats.busType)},
		b.stats.counters,
	)
}
