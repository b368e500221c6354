// Package irqmetrics exports the counters of irqsafety locks to Prometheus.
package irqmetrics

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nsmithuk/irqsafety"
)

var (
	ErrDuplicateLock = errors.New("a lock with this name is already registered")
	ErrEmptyName     = errors.New("the lock name cannot be empty")
)

// occupancy is implemented by irqsafety.RWLock.
type occupancy interface {
	ReaderCount() int
	WriterCount() int
}

// locked is implemented by irqsafety.Mutex.
type locked interface {
	IsLocked() bool
}

// Collector is a prometheus.Collector over a set of named locks. Values are
// read without synchronizing with the locks and are therefore advisory.
type Collector struct {
	mu    sync.RWMutex
	locks map[string]irqsafety.StatsSource

	acquisitions *prometheus.Desc
	rejections   *prometheus.Desc
	failures     *prometheus.Desc
	readers      *prometheus.Desc
	writers      *prometheus.Desc
}

// NewCollector creates an empty collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "lock", n)
	}
	return &Collector{
		locks: make(map[string]irqsafety.StatsSource),

		acquisitions: prometheus.NewDesc(name("acquisitions_total"),
			"Guards handed out, by access mode.", []string{"lock", "mode"}, nil),
		rejections: prometheus.NewDesc(name("fast_rejections_total"),
			"Attempts refused by the occupancy hint without touching interrupts.", []string{"lock"}, nil),
		failures: prometheus.NewDesc(name("failed_attempts_total"),
			"Attempts that disabled interrupts and then lost the race.", []string{"lock"}, nil),
		readers: prometheus.NewDesc(name("readers"),
			"Readers currently holding the lock.", []string{"lock"}, nil),
		writers: prometheus.NewDesc(name("writers"),
			"Writers currently holding the lock, 0 or 1.", []string{"lock"}, nil),
	}
}

// Add registers a lock under name.
// - name: The value of the "lock" label.
// - lock: An *irqsafety.Mutex or *irqsafety.RWLock.
func (c *Collector) Add(name string, lock irqsafety.StatsSource) error {
	if name == "" {
		return ErrEmptyName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.locks[name]; found {
		return fmt.Errorf("%w: %s", ErrDuplicateLock, name)
	}
	c.locks[name] = lock
	return nil
}

// Remove stops exporting the lock registered under name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	delete(c.locks, name)
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquisitions
	ch <- c.rejections
	ch <- c.failures
	ch <- c.readers
	ch <- c.writers
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.locks))
	for name := range c.locks {
		names = append(names, name)
	}
	sort.Strings(names)
	locks := make([]irqsafety.StatsSource, len(names))
	for i, name := range names {
		locks[i] = c.locks[name]
	}
	c.mu.RUnlock()

	for i, lock := range locks {
		name := names[i]
		s := lock.Stats()

		ch <- prometheus.MustNewConstMetric(c.acquisitions, prometheus.CounterValue, float64(s.Exclusive), name, "exclusive")
		ch <- prometheus.MustNewConstMetric(c.acquisitions, prometheus.CounterValue, float64(s.Shared), name, "shared")
		ch <- prometheus.MustNewConstMetric(c.rejections, prometheus.CounterValue, float64(s.Rejected), name)
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.Failed), name)

		var readers, writers int
		switch l := lock.(type) {
		case occupancy:
			readers, writers = l.ReaderCount(), l.WriterCount()
		case locked:
			if l.IsLocked() {
				writers = 1
			}
		}
		ch <- prometheus.MustNewConstMetric(c.readers, prometheus.GaugeValue, float64(readers), name)
		ch <- prometheus.MustNewConstMetric(c.writers, prometheus.GaugeValue, float64(writers), name)
	}
}
