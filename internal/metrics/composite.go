package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CompositeMetrics tracks GIF generations. It satisfies composite.Recorder.
type CompositeMetrics struct {
	generations *prometheus.CounterVec
	frames      prometheus.Histogram
	duration    prometheus.Histogram
}

// NewCompositeMetrics registers composite metrics on reg.
func NewCompositeMetrics(reg prometheus.Registerer) *CompositeMetrics {
	cm := &CompositeMetrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "composite",
			Name:      "generations_total",
			Help:      "GIF generations by result (ok, empty, or the abort kind).",
		}, []string{"result"}),
		frames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "composite",
			Name:      "frames",
			Help:      "Frames per successfully written GIF.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "composite",
			Name:      "duration_seconds",
			Help:      "Wall time of GIF generations.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	reg.MustRegister(cm.generations, cm.frames, cm.duration)
	return cm
}

// ObserveGeneration records one generation.
func (m *CompositeMetrics) ObserveGeneration(result string, frames int, dur time.Duration) {
	m.generations.WithLabelValues(result).Inc()
	m.duration.Observe(dur.Seconds())
	if result == "ok" {
		m.frames.Observe(float64(frames))
	}
}
