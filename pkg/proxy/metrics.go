package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "webproxy_sessions_active",
		Help: "Number of the currently connected signaling sessions.",
	})
	bridgesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webproxy_bridges_started_total",
		Help: "Number of the bridges started since the launch.",
	})
	gameTxBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webproxy_game_tx_bytes_total",
		Help: "Bytes forwarded from the browsers to the game server.",
	})
	gameRxBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webproxy_game_rx_bytes_total",
		Help: "Bytes forwarded from the game server to the browsers.",
	})
)
