// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		ddnsWebhookRequestsTotal,
		notificationsTotal,
		hooksIssuedTotal,
	)
}

var (
	ddnsWebhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddns_webhook_requests_total",
			Help: "DDNS callbacks by HTTP status returned to the updater.",
		},
		[]string{"status"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound IP-change notifications by delivery result (sent/failed).",
		},
		[]string{"result"},
	)

	hooksIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hooks_issued_total",
			Help: "Webhook URLs handed out, split by whether a new binding was created.",
		},
		[]string{"created"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncDDNSWebhook(status int) {
	ddnsWebhookRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func IncNotification(result string) {
	notificationsTotal.WithLabelValues(norm(result)).Inc()
}

func IncHookIssued(created bool) {
	hooksIssuedTotal.WithLabelValues(strconv.FormatBool(created)).Inc()
}
