// Package stress drives many goroutines through one irqsafety lock and
// checks that every update landed and no guard overlapped another.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nsmithuk/irqsafety"
	"github.com/nsmithuk/irqsafety/internal/config"
	"github.com/nsmithuk/irqsafety/irqmetrics"
)

var (
	ErrCountMismatch     = errors.New("the final count does not match the number of increments")
	ErrExclusionViolated = errors.New("a reader observed an active writer")
	ErrUnsupportedLock   = errors.New("unsupported lock kind")
)

// Result summarises a finished run.
type Result struct {
	Expected uint64
	Count    uint64
	Reads    uint64
	Elapsed  time.Duration
	Stats    irqsafety.Stats
}

// Runner executes one stress run described by Config.
type Runner struct {
	Config  *config.Config
	Log     logrus.FieldLogger
	Metrics *irqmetrics.Collector // Optional. The lock is registered as "counter".
	Options []irqsafety.Option    // Passed to the lock constructor.
}

// counter is the part of Mutex and RWLock the workers need.
type counter interface {
	irqsafety.StatsSource
	increment()
	read() (uint64, bool)
	value() uint64
}

type mutexCounter struct {
	*irqsafety.Mutex[uint64]
}

func (m mutexCounter) increment() {
	g := m.Lock()
	*g.Get()++
	g.Unlock()
}

func (m mutexCounter) read() (uint64, bool) {
	g := m.Lock()
	defer g.Unlock()
	return *g.Get(), true
}

func (m mutexCounter) value() uint64 {
	return m.IntoInner()
}

type rwlockCounter struct {
	*irqsafety.RWLock[uint64]
}

func (l rwlockCounter) increment() {
	g := l.Write()
	*g.Get()++
	g.Unlock()
}

// read reports false if a writer was visible while the read guard was held.
func (l rwlockCounter) read() (uint64, bool) {
	g := l.Read()
	defer g.Unlock()
	return *g.Get(), l.WriterCount() == 0
}

func (l rwlockCounter) value() uint64 {
	return l.IntoInner()
}

func (r *Runner) newCounter() (counter, error) {
	switch r.Config.Lock {
	case config.LockMutex:
		return mutexCounter{irqsafety.NewMutex[uint64](0, r.Options...)}, nil
	case config.LockRWLock:
		return rwlockCounter{irqsafety.NewRWLock[uint64](0, r.Options...)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedLock, r.Config.Lock)
}

// Run starts the workers and readers and waits for them. Cancelling ctx
// stops workers between increments; an increment already spinning is not
// interrupted.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	cfg := r.Config
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	c, err := r.newCounter()
	if err != nil {
		return Result{}, err
	}
	if r.Metrics != nil {
		if err := r.Metrics.Add("counter", c); err != nil {
			return Result{}, err
		}
		defer r.Metrics.Remove("counter")
	}

	log.WithFields(logrus.Fields{
		"lock":       cfg.Lock,
		"workers":    cfg.Workers,
		"iterations": cfg.Iterations,
		"readers":    cfg.Readers,
	}).Info("starting stress run")

	start := time.Now()
	var reads atomic.Uint64
	var writersLeft atomic.Int64
	writersLeft.Store(int64(cfg.Workers))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error {
			defer writersLeft.Add(-1)
			for j := 0; j < cfg.Iterations; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				c.increment()
			}
			return nil
		})
	}
	for i := 0; i < cfg.Readers; i++ {
		g.Go(func() error {
			for writersLeft.Load() > 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, ok := c.read(); !ok {
					return fmt.Errorf("%w: reader %d", ErrExclusionViolated, i)
				}
				reads.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{
		Expected: uint64(cfg.Workers) * uint64(cfg.Iterations),
		Count:    c.value(),
		Reads:    reads.Load(),
		Elapsed:  time.Since(start),
		Stats:    c.Stats(),
	}

	log.WithFields(logrus.Fields{
		"expected": res.Expected,
		"count":    res.Count,
		"reads":    res.Reads,
		"elapsed":  res.Elapsed,
		"rejected": res.Stats.Rejected,
		"failed":   res.Stats.Failed,
	}).Info("stress run finished")

	if res.Count != res.Expected {
		return res, fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, res.Expected, res.Count)
	}
	return res, nil
}
