// Package schedule repeats a run on a fixed interval until the context ends.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Every returns the cron spec for a fixed interval.
func Every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// Run calls task once straight away and then on every tick of spec, until
// ctx is done. Runs never overlap: a tick that fires while task is still
// running is skipped. Run returns only after the in-flight task has finished.
func Run(ctx context.Context, spec string, log *zap.Logger, task func(context.Context)) error {
	if log == nil {
		log = zap.NewNop()
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	logger := cronLogger{log: log}
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() { task(ctx) }))

	c := cron.New(cron.WithLogger(logger))
	c.Schedule(sched, job)
	c.Start()
	log.Info("⏰ Scheduler started", zap.String("schedule", spec))

	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		job.Run()
	}()

	<-ctx.Done()
	log.Info("🛑 Stopping scheduler, waiting for the current run to finish")
	<-c.Stop().Done()
	first.Wait()
	log.Info("👋 Scheduler stopped")
	return nil
}

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, zap.Any("params", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, zap.Error(err), zap.Any("params", keysAndValues))
}
