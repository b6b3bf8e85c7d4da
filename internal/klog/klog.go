// Package klog provides the leveled, printf-style logging call shape the
// teacher's PE-parsing code expects from its own (unavailable in this
// module's dependency set) logging package, backed by a real structured
// logger (go.uber.org/zap) instead.
package klog

import (
	"go.uber.org/zap"
)

// Helper wraps a zap.SugaredLogger with the Errorf/Warnf/Infof/Debugf call
// shape used throughout this module wherever a component needs to log
// without threading a dependency through every function signature.
type Helper struct {
	sugar *zap.SugaredLogger
}

// New builds a Helper around a freshly constructed production zap logger.
func New() *Helper {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return &Helper{sugar: logger.Sugar()}
}

// NewFromLogger wraps an existing *zap.Logger.
func NewFromLogger(logger *zap.Logger) *Helper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Helper{sugar: logger.Sugar()}
}

// NewNop returns a Helper that discards everything, used as the default
// when no logger is configured.
func NewNop() *Helper {
	return &Helper{sugar: zap.NewNop().Sugar()}
}

// NewHelper mirrors the teacher's expected constructor name.
func NewHelper(logger *zap.Logger) *Helper {
	return NewFromLogger(logger)
}

func (h *Helper) Debugf(template string, args ...interface{}) {
	if h == nil || h.sugar == nil {
		return
	}
	h.sugar.Debugf(template, args...)
}

func (h *Helper) Infof(template string, args ...interface{}) {
	if h == nil || h.sugar == nil {
		return
	}
	h.sugar.Infof(template, args...)
}

func (h *Helper) Warnf(template string, args ...interface{}) {
	if h == nil || h.sugar == nil {
		return
	}
	h.sugar.Warnf(template, args...)
}

func (h *Helper) Errorf(template string, args ...interface{}) {
	if h == nil || h.sugar == nil {
		return
	}
	h.sugar.Errorf(template, args...)
}

// Sync flushes any buffered log entries, mirroring zap.Logger.Sync.
func (h *Helper) Sync() error {
	if h == nil || h.sugar == nil {
		return nil
	}
	return h.sugar.Sync()
}
