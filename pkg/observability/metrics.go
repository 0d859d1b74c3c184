package observability

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// HTTP metric families recorded by HTTPMiddleware
const (
	RequestsTotalFamily      = "requests_total"
	RequestDurationFamily    = "request_duration_seconds"
	RequestsInProgressFamily = "requests_in_progress"
)

// RequestDurationBuckets are the upper bounds, in seconds, of the request latency histogram
var RequestDurationBuckets = []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0}

// ErrFamilyRegistered is returned when a family name is registered twice
var ErrFamilyRegistered = errors.New("metric family already registered")

// Registry owns labelled counter, histogram and gauge families and renders them
// in the Prometheus text exposition format.
//
// Label tuples are created on first use and live for the lifetime of the
// registry, so callers must keep label values bounded (route templates rather
// than raw paths). All methods are safe for concurrent use.
type Registry struct {
	registry *prometheus.Registry

	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// NewHTTPRegistry creates a registry with the request families used by HTTPMiddleware
func NewHTTPRegistry() *Registry {
	r := NewRegistry()

	r.MustRegisterCounter(RequestsTotalFamily,
		"Total HTTP requests received",
		"method", "path", "code")
	r.MustRegisterHistogram(RequestDurationFamily,
		"HTTP request duration in seconds",
		RequestDurationBuckets,
		"method", "path", "code")
	r.MustRegisterGauge(RequestsInProgressFamily,
		"HTTP requests currently in progress",
		"path")

	return r
}

// RegisterCounter registers a counter family
func (r *Registry) RegisterCounter(name, help string, labelNames ...string) error {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labelNames)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.register(name, vec); err != nil {
		return err
	}
	r.counters[name] = vec
	return nil
}

// RegisterHistogram registers a histogram family with fixed bucket upper bounds
func (r *Registry) RegisterHistogram(name, help string, buckets []float64, labelNames ...string) error {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: buckets,
	}, labelNames)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.register(name, vec); err != nil {
		return err
	}
	r.histograms[name] = vec
	return nil
}

// RegisterGauge registers an integer-valued gauge family
func (r *Registry) RegisterGauge(name, help string, labelNames ...string) error {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labelNames)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.register(name, vec); err != nil {
		return err
	}
	r.gauges[name] = vec
	return nil
}

// MustRegisterCounter is RegisterCounter that panics on conflict
func (r *Registry) MustRegisterCounter(name, help string, labelNames ...string) {
	if err := r.RegisterCounter(name, help, labelNames...); err != nil {
		panic(err)
	}
}

// MustRegisterHistogram is RegisterHistogram that panics on conflict
func (r *Registry) MustRegisterHistogram(name, help string, buckets []float64, labelNames ...string) {
	if err := r.RegisterHistogram(name, help, buckets, labelNames...); err != nil {
		panic(err)
	}
}

// MustRegisterGauge is RegisterGauge that panics on conflict
func (r *Registry) MustRegisterGauge(name, help string, labelNames ...string) {
	if err := r.RegisterGauge(name, help, labelNames...); err != nil {
		panic(err)
	}
}

// MustRegisterCollector registers additional collectors such as DB pool stats
func (r *Registry) MustRegisterCollector(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// RegisterRuntimeCollectors adds the Go runtime and process collectors
func (r *Registry) RegisterRuntimeCollectors() {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// register must be called with r.mu held
func (r *Registry) register(name string, c prometheus.Collector) error {
	_, isCounter := r.counters[name]
	_, isHistogram := r.histograms[name]
	_, isGauge := r.gauges[name]
	if isCounter || isHistogram || isGauge {
		return fmt.Errorf("%w: %s", ErrFamilyRegistered, name)
	}

	if err := r.registry.Register(c); err != nil {
		return fmt.Errorf("failed to register metric family %s: %w", name, err)
	}
	return nil
}

// IncrementCounter adds one to the counter identified by labelValues.
// Panics if the family is unknown or the label count is wrong.
func (r *Registry) IncrementCounter(family string, labelValues ...string) {
	r.mu.RLock()
	vec, ok := r.counters[family]
	r.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("observability: counter family %q is not registered", family))
	}

	vec.WithLabelValues(labelValues...).Inc()
}

// ObserveHistogram records value in the histogram identified by labelValues
func (r *Registry) ObserveHistogram(family string, value float64, labelValues ...string) {
	r.mu.RLock()
	vec, ok := r.histograms[family]
	r.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("observability: histogram family %q is not registered", family))
	}

	vec.WithLabelValues(labelValues...).Observe(value)
}

// AddGauge adds delta (which may be negative) to the gauge identified by labelValues.
// The registry does not enforce non-negativity.
func (r *Registry) AddGauge(family string, delta int64, labelValues ...string) {
	r.mu.RLock()
	vec, ok := r.gauges[family]
	r.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("observability: gauge family %q is not registered", family))
	}

	vec.WithLabelValues(labelValues...).Add(float64(delta))
}

// Gatherer exposes the underlying gatherer
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Render returns the content type and text exposition of every registered family.
// Each family is a consistent snapshot; families are not snapshotted together.
func (r *Registry) Render() (string, []byte, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return "", nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, format)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return "", nil, fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}

	return string(format), buf.Bytes(), nil
}
