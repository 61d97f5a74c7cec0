package oracle

import (
	"context"
	"time"
)

// Completer sends one chat completion and returns the trimmed reply text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// CallObserver receives one record per completion attempt.
type CallObserver interface {
	ObserveCall(operation string, outcome Outcome, elapsed time.Duration)
}

// Observe reports every call made through next to observer.
func Observe(next Completer, observer CallObserver) Completer {
	if observer == nil {
		return next
	}
	return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		started := time.Now()
		reply, err := next.Complete(ctx, req)
		observer.ObserveCall(req.Operation, OutcomeOf(err), time.Since(started))
		return reply, err
	})
}

// Record writes every prompt and reply made through next to transcript.
func Record(next Completer, transcript *Transcript) Completer {
	if transcript == nil {
		return next
	}
	return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		transcript.Request(req)
		reply, err := next.Complete(ctx, req)
		transcript.Reply(req.Operation, reply, err)
		return reply, err
	})
}

// WithTimeout bounds each call made through next.
func WithTimeout(next Completer, timeout time.Duration) Completer {
	if timeout <= 0 {
		return next
	}
	return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return next.Complete(callCtx, req)
	})
}
