package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Evaluator periodically re-evaluates the Window independently of request
// traffic. It is level-triggered: a missed tick costs nothing, the next one
// that runs derives the same end state from the current instant.
type Evaluator struct {
	svc      Service
	interval time.Duration
	logger   core.Logger

	mu     sync.Mutex
	ticker *time.Ticker
	stopCh chan struct{}
}

func NewEvaluator(svc Service, conf *core.Config, logger core.Logger) *Evaluator {
	return &Evaluator{
		svc:      svc,
		interval: conf.Maintenance.CheckInterval,
		logger:   logger,
	}
}

func (e *Evaluator) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ticker != nil {
		return // already running
	}

	ticker := time.NewTicker(e.interval)
	stopCh := make(chan struct{})
	e.ticker = ticker
	e.stopCh = stopCh

	go func(t *time.Ticker, stop <-chan struct{}) {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				e.svc.EvaluateTick(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}(ticker, stopCh)

	e.logger.Info("maintenance evaluator started: interval " + e.interval.String())
}

func (e *Evaluator) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.stopCh)
	e.ticker = nil
	e.stopCh = nil
	e.logger.Info("maintenance evaluator stopped")
}
