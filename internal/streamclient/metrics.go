package streamclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconnectsTotal counts stream session restarts initiated by the coordinator.
	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_streamclient_reconnects_total",
		Help: "Total number of stream client reconnects",
	})

	// FramesReceivedTotal counts raw frames read off the wire.
	FramesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_streamclient_frames_received_total",
		Help: "Total number of raw frames received from the stream",
	})

	// FramesDroppedTotal counts frames discarded as non-string, non-JSON, or
	// unparsable; PING/PONG keepalive frames are discarded without being counted.
	FramesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_streamclient_frames_dropped_total",
			Help: "Total number of frames dropped by reason",
		},
		[]string{"reason"},
	)
)
