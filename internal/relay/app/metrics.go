package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics relay counters, labelled by connection kind (inbox, room)
type Metrics struct {
	Connections *prometheus.GaugeVec
	FramesIn    *prometheus.CounterVec
	FramesOut   *prometheus.CounterVec
	Messages    prometheus.Counter
	Notices     *prometheus.CounterVec
}

// NewMetrics register relay metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "joa", Subsystem: "relay", Name: "connections",
			Help: "Open websocket connections.",
		}, []string{"kind"}),
		FramesIn: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "joa", Subsystem: "relay", Name: "frames_in_total",
			Help: "Frames read from clients.",
		}, []string{"kind"}),
		FramesOut: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "joa", Subsystem: "relay", Name: "frames_out_total",
			Help: "Frames written to clients.",
		}, []string{"kind"}),
		Messages: f.NewCounter(prometheus.CounterOpts{
			Namespace: "joa", Subsystem: "relay", Name: "messages_stored_total",
			Help: "Chat messages stored.",
		}),
		Notices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "joa", Subsystem: "relay", Name: "notices_total",
			Help: "Room notices sent, by notice kind.",
		}, []string{"notice"}),
	}
}
