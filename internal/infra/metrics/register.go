package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues relay collectors from the init funcs of this package.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister adds the queued collectors to the default registry served on
// the admin /metrics endpoint. Later calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() {
		if len(pending) == 0 {
			return
		}
		prometheus.MustRegister(pending...)
	})
}
