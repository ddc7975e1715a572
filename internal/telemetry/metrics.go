package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/framegraph/internal/rendergraph"
)

const namespace = "framegraph"

// Metrics records render graph activity as Prometheus metrics. It implements
// rendergraph.Hooks.
type Metrics struct {
	registry *prometheus.Registry

	builds               *prometheus.CounterVec
	buildDuration        prometheus.Histogram
	frames               prometheus.Counter
	frameDuration        prometheus.Histogram
	resourcesInitialized *prometheus.CounterVec
	stages               prometheus.Gauge
	droppedTasks         prometheus.Gauge
}

// NewMetrics registers the render graph metrics on a fresh registry, next to
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "builds_total",
			Help:      "Total render graph builds by status",
		}, []string{"status"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "build_duration_seconds",
			Help:      "Time to level a render graph into a timeline",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "frames_total",
			Help:      "Total frames executed",
		}),
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "frame_duration_seconds",
			Help:      "Time to execute every stage of a frame",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.004, 0.008, 0.016, 0.033, 0.1},
		}),
		resourcesInitialized: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "resources_initialized_total",
			Help:      "Total resource allocations by resource tag",
		}, []string{"resource"}),
		stages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "timeline_stages",
			Help:      "Number of stages in the current timeline",
		}),
		droppedTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "dropped_tasks",
			Help:      "Number of tasks left out of the current timeline",
		}),
	}
}

var _ rendergraph.Hooks = (*Metrics)(nil)

func (m *Metrics) ResourceInitialized(_ context.Context, tag string, _ rendergraph.Resource) {
	m.resourcesInitialized.WithLabelValues(tag).Inc()
}

func (m *Metrics) TimelineBuilt(_ context.Context, tl *rendergraph.Timeline, elapsed time.Duration) {
	m.builds.WithLabelValues("success").Inc()
	m.buildDuration.Observe(elapsed.Seconds())
	m.stages.Set(float64(len(tl.Stages())))
	m.droppedTasks.Set(float64(len(tl.Dropped())))
}

func (m *Metrics) BuildFailed(context.Context, error) {
	m.builds.WithLabelValues("error").Inc()
}

func (m *Metrics) FrameExecuted(_ context.Context, _ *rendergraph.Timeline, _ rendergraph.FrameInfo, elapsed time.Duration) {
	m.frames.Inc()
	m.frameDuration.Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
