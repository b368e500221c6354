// Command irqstress hammers an interrupt-safe lock from many goroutines and
// reports whether every increment landed.
//
// Usage:
//
//	irqstress [-config stress.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nsmithuk/irqsafety"
	"github.com/nsmithuk/irqsafety/internal/config"
	"github.com/nsmithuk/irqsafety/internal/stress"
	"github.com/nsmithuk/irqsafety/irqmetrics"
)

func main() {
	path := flag.String("config", "", "path to a YAML config file")
	trace := flag.Bool("trace", false, "log every interrupt hold and release")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Default()
	if *path != "" {
		var err error
		if cfg, err = config.Load(*path); err != nil {
			log.WithError(err).Fatal("loading config")
		}
	}

	level, err := cfg.Level()
	if err != nil {
		log.WithError(err).Fatal("parsing log level")
	}
	log.SetLevel(level)

	if *trace {
		log.SetLevel(logrus.TraceLevel)
		irqsafety.SetTraceLogger(log)
	}

	collector := irqmetrics.NewCollector("irqsafety")
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer srv.Close()
		log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &stress.Runner{
		Config:  cfg,
		Log:     log,
		Metrics: collector,
	}
	if _, err := runner.Run(ctx); err != nil {
		log.WithError(err).Error("stress run failed")
		stop()
		os.Exit(1)
	}
}
