package conn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics connection counters, labelled by connection name (inbox, room)
type Metrics struct {
	Dials        *prometheus.CounterVec
	DialFailures *prometheus.CounterVec
	Recycles     *prometheus.CounterVec
	Reconnects   *prometheus.CounterVec
	FramesIn     *prometheus.CounterVec
	FramesOut    *prometheus.CounterVec
}

// NewMetrics register the counters on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	counter := func(name, help string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "joa",
			Subsystem: "chat_conn",
			Name:      name,
			Help:      help,
		}, []string{"conn"})
	}
	return &Metrics{
		Dials:        counter("dials_total", "websocket dial attempts"),
		DialFailures: counter("dial_failures_total", "failed websocket dials"),
		Recycles:     counter("recycles_total", "forced close and reopen cycles"),
		Reconnects:   counter("reconnects_total", "backoff redials after a lost connection"),
		FramesIn:     counter("frames_in_total", "text frames received"),
		FramesOut:    counter("frames_out_total", "text frames sent"),
	}
}

// DefaultMetrics registered on the default prometheus registry
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
