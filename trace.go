package irqsafety

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type traceLogger struct {
	log logrus.Ext1FieldLogger
}

var tracer atomic.Pointer[traceLogger]

// SetTraceLogger makes the package log every interrupt hold and release at
// trace level. Pass nil to stop. Tracing runs with interrupts disabled, so
// it is meant for hosted debugging only.
func SetTraceLogger(log logrus.Ext1FieldLogger) {
	if log == nil {
		tracer.Store(nil)
		return
	}
	tracer.Store(&traceLogger{log: log})
}

func trace(h *HeldInterrupts, msg string) {
	t := tracer.Load()
	if t == nil {
		return
	}
	t.log.WithFields(logrus.Fields{
		"were_enabled": h.enabled,
		"core":         h.core,
	}).Trace(msg)
}
