// Package metrics exposes Prometheus collectors for inference activity.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/carbonwise/carbonwise/internal/pipeline"
	"github.com/carbonwise/carbonwise/internal/recommend"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "carbonwise"

// Collector records predictions, fallbacks and recommendations. A nil
// *Collector records nothing.
type Collector struct {
	predictions        *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	inFlight           prometheus.Gauge
	fallbacks          *prometheus.CounterVec
	recommendations    *prometheus.CounterVec
}

// NewCollector registers the collectors on the default registerer.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry registers the collectors on registerer. A nil
// registerer leaves them unregistered.
func NewCollectorWithRegistry(registerer prometheus.Registerer) *Collector {
	c := &Collector{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total predictions by model family and status",
		}, []string{"family", "status"}),
		predictionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent transforming and predicting one record",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"family"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "predictions_in_flight",
			Help:      "Number of predictions currently running",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Fallback policies applied while transforming inputs",
		}, []string{"stage", "policy"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations issued by category and priority",
		}, []string{"category", "priority"}),
	}

	if registerer != nil {
		registerer.MustRegister(c.predictions)
		registerer.MustRegister(c.predictionDuration)
		registerer.MustRegister(c.inFlight)
		registerer.MustRegister(c.fallbacks)
		registerer.MustRegister(c.recommendations)
	}

	return c
}

// StartPrediction marks a prediction as running. The returned function
// records its outcome.
func (c *Collector) StartPrediction(family string) func(err error) {
	if c == nil {
		return func(error) {}
	}

	start := time.Now()
	c.inFlight.Inc()

	return func(err error) {
		c.inFlight.Dec()

		status := "success"
		if err != nil {
			status = "error"
		}
		c.predictions.WithLabelValues(family, status).Inc()
		c.predictionDuration.WithLabelValues(family).Observe(time.Since(start).Seconds())
	}
}

// ObserveTrace counts the fallback events of one transform.
func (c *Collector) ObserveTrace(trace pipeline.Trace) {
	if c == nil {
		return
	}
	for _, e := range trace {
		c.fallbacks.WithLabelValues(string(e.Stage), string(e.Policy)).Inc()
	}
}

// ObserveRecommendations counts issued recommendations.
func (c *Collector) ObserveRecommendations(recs []recommend.Recommendation) {
	if c == nil {
		return
	}
	for _, r := range recs {
		c.recommendations.WithLabelValues(r.Category, string(r.Priority)).Inc()
	}
}

// WriteText writes the carbonwise metric families gathered from g in the
// Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range Own(families) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Own keeps the families in the carbonwise namespace, sorted by name.
func Own(families []*dto.MetricFamily) []*dto.MetricFamily {
	out := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), namespace+"_") {
			out = append(out, mf)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GetName() < out[j].GetName()
	})
	return out
}
