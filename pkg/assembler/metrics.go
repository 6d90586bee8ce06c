package assembler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeFinalized = "finalized"

// Metrics counts assembler activity. A nil *Metrics records nothing.
type Metrics struct {
	frames     prometheus.Counter
	assemblies *prometheus.CounterVec
	open       prometheus.Gauge
}

// NewMetrics registers the assembler collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "gibsreel_frames_written_total",
			Help: "Frames accepted by encoder streams.",
		}),
		assemblies: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gibsreel_assemblies_total",
			Help: "Finished assemblies by outcome (finalized, encoder_init, frame_write, encoder_close).",
		}, []string{"outcome"}),
		open: f.NewGauge(prometheus.GaugeOpts{
			Name: "gibsreel_encoders_open",
			Help: "Encoder streams currently held by assemblers.",
		}),
	}
}

func (m *Metrics) frameWritten() {
	if m == nil {
		return
	}
	m.frames.Inc()
}

func (m *Metrics) acquired() {
	if m == nil {
		return
	}
	m.open.Inc()
}

func (m *Metrics) released() {
	if m == nil {
		return
	}
	m.open.Dec()
}

func (m *Metrics) outcome(k Kind) {
	if m == nil {
		return
	}
	label := outcomeFinalized
	if k != 0 {
		label = k.String()
	}
	m.assemblies.WithLabelValues(label).Inc()
}

// FramesWritten exposes the frame counter, mostly for tests.
func (m *Metrics) FramesWritten() prometheus.Counter {
	return m.frames
}
