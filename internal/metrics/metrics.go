// Package metrics holds the prometheus collectors of a cubes client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cubes_client"

type Metrics struct {
	PacketsSent     *prometheus.CounterVec
	PacketsReceived *prometheus.CounterVec
	// PacketsRejected counts inbound datagrams that were dropped, by reason.
	PacketsRejected *prometheus.CounterVec
	SendFailures    prometheus.Counter

	State      prometheus.Gauge
	Connects   prometheus.Counter
	Timeouts   prometheus.Counter
	ClientTick prometheus.Gauge
	ServerTick prometheus.Gauge

	Adjustments      prometheus.Counter
	AdjustmentOffset prometheus.Histogram

	DroppedFrames prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PacketsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Packets handed to the transport, by packet type.",
		}, []string{"type"}),

		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Inbound packets that were decoded and accepted, by packet type.",
		}, []string{"type"}),

		PacketsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_rejected_total",
			Help:      "Inbound datagrams that were dropped, by reason.",
		}, []string{"reason"}),

		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Packets the transport failed to send.",
		}),

		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Connection state (0 disconnected, 1 sending connect request, 2 denied, 3 timed out, 4 connected).",
		}),

		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Connection attempts, reconnects included.",
		}),

		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeouts_total",
			Help:      "Sessions that timed out waiting for the server.",
		}),

		ClientTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "client_tick",
			Help:      "Current local simulation tick.",
		}),

		ServerTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_tick",
			Help:      "Last server tick seen in a snapshot.",
		}),

		Adjustments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustments_total",
			Help:      "Tick adjustments applied.",
		}),

		AdjustmentOffset: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adjustment_offset_ticks",
			Help:      "Tick offsets of applied adjustments.",
			Buckets:   []float64{-16, -8, -4, -2, -1, 0, 1, 2, 4, 8, 16},
		}),

		DroppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Frames skipped because the loop fell behind.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.PacketsSent,
			m.PacketsReceived,
			m.PacketsRejected,
			m.SendFailures,
			m.State,
			m.Connects,
			m.Timeouts,
			m.ClientTick,
			m.ServerTick,
			m.Adjustments,
			m.AdjustmentOffset,
			m.DroppedFrames,
		)
	}

	return m
}
