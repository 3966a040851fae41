package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

// Outcome is the result of one sink delivery
type Outcome struct {
	Sink     string
	Err      error
	Duration time.Duration
}

// Fanout delivers an event to every sink concurrently
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	log     *zap.Logger
}

// NewFanout creates a fan-out over sinks. Each delivery is bounded by timeout.
func NewFanout(sinks []Sink, timeout time.Duration, log *zap.Logger) *Fanout {
	return &Fanout{
		sinks:   sinks,
		timeout: timeout,
		log:     log,
	}
}

// Len returns the number of configured sinks
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Start begins delivery and returns a channel that yields all outcomes once
// every sink has finished. Deliveries are detached from ctx cancellation so a
// caller going away does not abort them; the per-sink timeout still applies.
func (f *Fanout) Start(ctx context.Context, eventName string, props Properties) <-chan []Outcome {
	done := make(chan []Outcome, 1)
	if len(f.sinks) == 0 {
		done <- nil
		return done
	}

	base := context.WithoutCancel(ctx)
	outcomes := make([]Outcome, len(f.sinks))

	var wg sync.WaitGroup
	for i, s := range f.sinks {
		wg.Add(1)
		go func(idx int, s Sink) {
			defer wg.Done()
			outcomes[idx] = f.deliver(base, s, eventName, props)
		}(i, s)
	}

	go func() {
		wg.Wait()
		done <- outcomes
	}()

	return done
}

// Dispatch delivers an event and waits for every outcome. It never fails.
func (f *Fanout) Dispatch(ctx context.Context, eventName string, props Properties) []Outcome {
	return <-f.Start(ctx, eventName, props)
}

func (f *Fanout) deliver(ctx context.Context, s Sink, eventName string, props Properties) (out Outcome) {
	name := s.Name()
	start := time.Now()
	out.Sink = name

	defer func() {
		if r := recover(); r != nil {
			out.Err = &domain.SinkError{Sink: name, Err: fmt.Errorf("panic during send: %v", r)}
		}
		out.Duration = time.Since(start)
	}()

	sendCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	if err := s.Send(sendCtx, eventName, props); err != nil {
		out.Err = err
		f.log.Debug("Sink delivery failed",
			zap.String("sink", name),
			zap.String("event_name", eventName),
			zap.Error(err))
	}
	return out
}

// Failed returns the outcomes that carry an error
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
