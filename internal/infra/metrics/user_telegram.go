package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramCommandsReceivedTotal,
		telegramUpdatesRejectedTotal,
	)
}

var (
	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming commands and button presses from users.",
		},
		[]string{"command"},
	)

	telegramUpdatesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_rejected_total",
			Help: "Telegram webhook deliveries rejected before dispatch.",
		},
		[]string{"reason"},
	)
)

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncTelegramRejected(reason string) {
	telegramUpdatesRejectedTotal.WithLabelValues(norm(reason)).Inc()
}
