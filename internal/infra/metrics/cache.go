package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(resolveCacheTotal) }

// resolveCacheTotal counts lookups against the Redis hook -> chat cache.
var resolveCacheTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "resolve_cache_requests_total",
		Help: "Hook resolve cache lookups by result.",
	},
	[]string{"cache", "result"},
)

// IncCacheRequest records a hit or miss for the named cache.
func IncCacheRequest(cacheName, result string) {
	resolveCacheTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
