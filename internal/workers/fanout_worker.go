package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// FanoutProcessor handles one batch of pending fanout rows.
type FanoutProcessor interface {
	ProcessPending(ctx context.Context) (int, error)
}

type FanoutWorker struct {
	Processor FanoutProcessor
	Interval  time.Duration
	Logger    *zap.Logger
}

func NewFanoutWorker(processor FanoutProcessor, interval time.Duration, logger *zap.Logger) *FanoutWorker {
	if interval <= 0 {
		interval = time.Second
	}
	return &FanoutWorker{
		Processor: processor,
		Interval:  interval,
		Logger:    logger,
	}
}

// Run polls the queue until ctx is cancelled. After a batch that made progress the next one starts at once.
func (w *FanoutWorker) Run(ctx context.Context) {
	w.Logger.Info("🚀 FanoutWorker started", zap.Duration("interval", w.Interval))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("🛑 Fanout worker stopped")
			return
		case <-timer.C:
			wait := w.Interval
			n, err := w.Processor.ProcessPending(ctx)
			switch {
			case err != nil && ctx.Err() == nil:
				w.Logger.Error("❌ Error processing fanout queue", zap.Error(err))
			case n > 0:
				w.Logger.Debug("Processed fanout rows", zap.Int("count", n))
				wait = 0
			}
			timer.Reset(wait)
		}
	}
}
