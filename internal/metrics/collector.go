package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

const (
	namespace = "catalog_provider"

	labelProvider = "provider"
	labelResult   = "result"
	labelPhase    = "phase"
)

// Collector records tick outcomes for every provider.
type Collector struct {
	ticks         *prometheus.CounterVec
	tickDuration  *prometheus.HistogramVec
	entities      *prometheus.GaugeVec
	removed       *prometheus.CounterVec
	renderErrors  *prometheus.CounterVec
	accountErrors *prometheus.CounterVec
	lastSuccess   *prometheus.GaugeVec
}

func NewCollector() *Collector {
	return &Collector{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of provider ticks by result and the phase a failed tick stopped in.",
		}, []string{labelProvider, labelResult, labelPhase}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of provider ticks.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{labelProvider}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Entities in the last successfully submitted snapshot.",
		}, []string{labelProvider}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_removed_total",
			Help:      "Entity references removed from the catalog.",
		}, []string{labelProvider}),
		renderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Records skipped because they could not be rendered.",
		}, []string{labelProvider}),
		accountErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_errors_total",
			Help:      "Accounts whose records could not be fetched.",
		}, []string{labelProvider}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful tick started.",
		}, []string{labelProvider}),
	}
}

// ObserveTick implements ports.TickRecorder.
func (c *Collector) ObserveTick(r domain.TickResult) {
	phase := ""
	result := "success"
	if r.Status != domain.TickSucceeded {
		result = "failure"
		phase = string(r.FailedIn)
	}
	c.ticks.WithLabelValues(r.Provider, result, phase).Inc()
	c.tickDuration.WithLabelValues(r.Provider).Observe(r.Duration.Seconds())
	c.renderErrors.WithLabelValues(r.Provider).Add(float64(len(r.RenderFailures)))
	c.accountErrors.WithLabelValues(r.Provider).Add(float64(len(r.AccountFailures)))
	if r.Status == domain.TickSucceeded {
		c.entities.WithLabelValues(r.Provider).Set(float64(len(r.Upserted)))
		c.removed.WithLabelValues(r.Provider).Add(float64(len(r.Removed)))
		c.lastSuccess.WithLabelValues(r.Provider).Set(float64(r.StartedAt.Unix()))
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.ticks.Describe(ch)
	c.tickDuration.Describe(ch)
	c.entities.Describe(ch)
	c.removed.Describe(ch)
	c.renderErrors.Describe(ch)
	c.accountErrors.Describe(ch)
	c.lastSuccess.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.ticks.Collect(ch)
	c.tickDuration.Collect(ch)
	c.entities.Collect(ch)
	c.removed.Collect(ch)
	c.renderErrors.Collect(ch)
	c.accountErrors.Collect(ch)
	c.lastSuccess.Collect(ch)
}

// Handler serves the collector from a dedicated registry alongside the Go
// runtime and process collectors.
func Handler(c *Collector) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	for _, col := range []prometheus.Collector{
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}
