// Package sink writes a finished record collection to its destinations.
// Sinks are independent: one failing never stops or undoes the others.
package sink

import (
	"context"
	"errors"
	"fmt"

	"go-jobboard-scraper/internal/scraper"

	"go.uber.org/zap"
)

// ErrEmpty is reported for every sink when there is nothing to write.
var ErrEmpty = errors.New("no records to write")

// Sink is one output destination.
type Sink interface {
	Name() string
	// Write stores the collection and returns a short human-readable detail.
	Write(ctx context.Context, c scraper.Collection) (string, error)
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one sink.
type Result struct {
	Sink   string
	Status Status
	Detail string
	Err    error
}

type Dispatcher struct {
	sinks []Sink
	log   *zap.Logger
}

func NewDispatcher(log *zap.Logger, sinks ...Sink) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{sinks: sinks, log: log}
}

// Dispatch hands c to every sink in order and reports each outcome.
// An empty collection is a no-op: nothing is written and no request is made.
func (d *Dispatcher) Dispatch(ctx context.Context, c scraper.Collection) []Result {
	results := make([]Result, 0, len(d.sinks))
	if c.Len() == 0 {
		d.log.Info("⚠ No records to dispatch")
		for _, s := range d.sinks {
			results = append(results, Result{Sink: s.Name(), Status: StatusSkipped, Err: ErrEmpty})
		}
		return results
	}

	for _, s := range d.sinks {
		results = append(results, d.write(ctx, s, c))
	}
	return results
}

func (d *Dispatcher) write(ctx context.Context, s Sink, c scraper.Collection) (res Result) {
	res.Sink = s.Name()
	defer func() {
		if p := recover(); p != nil {
			res.Status, res.Err = StatusFailed, fmt.Errorf("sink panicked: %v", p)
			d.log.Error("❌ Sink failed", zap.String("sink", res.Sink), zap.Error(res.Err))
		}
	}()

	detail, err := s.Write(ctx, c)
	res.Detail = detail
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		d.log.Error("❌ Sink failed", zap.String("sink", res.Sink), zap.Error(err))
		return res
	}
	res.Status = StatusOK
	d.log.Info("✅ Sink written", zap.String("sink", res.Sink), zap.String("detail", detail))
	return res
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}
