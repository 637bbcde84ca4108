// Package metrics exports multiton registry sizes and churn to Prometheus.
package metrics

import (
	"sort"
	"sync"

	"github.com/junioryono/multiton"
	"github.com/prometheus/client_golang/prometheus"
)

// Sizer reports a number of live instances. A *multiton.Multiton is a Sizer.
type Sizer interface {
	Len() int
}

var _ prometheus.Collector = (*Collector)(nil)

// Collector reports live instances per tracked multiton as a gauge and
// counts instance creation and removal.
type Collector struct {
	instances *prometheus.Desc
	created   *prometheus.CounterVec
	removed   *prometheus.CounterVec

	mu     sync.RWMutex
	sizers map[string]Sizer
}

// NewCollector creates a collector whose metric names are prefixed with
// namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		instances: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "multiton", "instances"),
			"Number of live multiton instances",
			[]string{"multiton"}, nil,
		),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "multiton",
			Name:      "instances_created_total",
			Help:      "Total number of multiton instances created",
		}, []string{"multiton"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "multiton",
			Name:      "instances_removed_total",
			Help:      "Total number of multiton instances removed",
		}, []string{"multiton"}),
		sizers: make(map[string]Sizer),
	}
}

// Register creates a collector and registers it on reg. If reg is nil, the
// default registerer is used. If an equal collector is already registered,
// the existing one is returned.
func Register(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := NewCollector(namespace)
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*Collector); ok {
				return existing, nil
			}
		}
		return nil, err
	}

	return c, nil
}

// Track reports the size of s under name until the returned function is
// called. Tracking a name again replaces the previous Sizer.
func (c *Collector) Track(name string, s Sizer) (untrack func()) {
	c.mu.Lock()
	c.sizers[name] = s
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.sizers[name] == s {
			delete(c.sizers, name)
		}
	}
}

// Options returns multiton options counting instance churn under name.
//
// Example:
//
//	factory := multiton.Build(multiton.Sum[int](), nil, collector.Options("uploads")...)
func (c *Collector) Options(name string) []multiton.Option {
	created := c.created.WithLabelValues(name)
	removed := c.removed.WithLabelValues(name)

	return []multiton.Option{
		multiton.WithOnCreate(func(any) { created.Inc() }),
		multiton.WithOnRemove(func(any) { removed.Inc() }),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.instances
	c.created.Describe(ch)
	c.removed.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.sizers))
	for name := range c.sizers {
		names = append(names, name)
	}
	sort.Strings(names)

	sizes := make([]int, len(names))
	for i, name := range names {
		sizes[i] = c.sizers[name].Len()
	}
	c.mu.RUnlock()

	for i, name := range names {
		ch <- prometheus.MustNewConstMetric(c.instances, prometheus.GaugeValue, float64(sizes[i]), name)
	}

	c.created.Collect(ch)
	c.removed.Collect(ch)
}
