// Package metrics reduces published frames to scalar observables.
package metrics

import (
	"github.com/san-kum/massgrid/internal/dynamo"
)

// Metric folds frames into a single value.
type Metric interface {
	Name() string
	Observe(f dynamo.Frame)
	Value() float64
	Reset()
}

// Set drives a group of metrics from the simulator's frame stream.
type Set struct {
	metrics []Metric
}

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

func (s *Set) Add(m Metric) { s.metrics = append(s.metrics, m) }

// OnFrame lets a Set be registered directly as a simulator observer.
func (s *Set) OnFrame(f dynamo.Frame) {
	for _, m := range s.metrics {
		m.Observe(f)
	}
}

func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set) Reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Series keeps the most recent values of a metric for plotting.
type Series struct {
	metric Metric
	values []float64
	limit  int
}

func NewSeries(m Metric, limit int) *Series {
	return &Series{metric: m, limit: limit, values: make([]float64, 0, limit)}
}

func (s *Series) Name() string { return s.metric.Name() }

func (s *Series) Observe(f dynamo.Frame) {
	s.metric.Observe(f)
	s.values = append(s.values, s.metric.Value())
	if s.limit > 0 && len(s.values) > s.limit {
		s.values = s.values[len(s.values)-s.limit:]
	}
}

func (s *Series) Value() float64 { return s.metric.Value() }

func (s *Series) Reset() {
	s.metric.Reset()
	s.values = s.values[:0]
}

// Values returns the retained history, oldest first.
func (s *Series) Values() []float64 { return s.values }
