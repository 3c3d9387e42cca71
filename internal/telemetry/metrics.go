package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_rooms_created_total",
		Help: "Rooms created, by game mode.",
	}, []string{"mode"})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trivia_active_rooms",
		Help: "Rooms currently held in the registry.",
	})

	SocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_socket_events_total",
		Help: "Inbound socket events, by event name.",
	}, []string{"event"})

	GamesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_games_finished_total",
		Help: "Games that reached the final scoreboard.",
	})
)
