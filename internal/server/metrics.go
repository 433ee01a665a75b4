package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multisweeper_connections_total",
		Help: "Sessions opened, by transport",
	}, []string{"transport"})

	playersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "multisweeper_players",
		Help: "Currently connected sessions",
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multisweeper_commands_total",
		Help: "Commands handled, by command",
	}, []string{"command"})

	explosionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "multisweeper_explosions_total",
		Help: "Digs that hit a bomb",
	})

	cellsRevealedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "multisweeper_cells_revealed_total",
		Help: "Cells turned from untouched to dug, cascades included",
	})
)
