package oracle

import (
	"context"
	"time"
)

// CompleterFactory builds a completer bound to one credential.
type CompleterFactory func(Credential) (Completer, error)

// Wrap applies decorate to every completer f builds. Under a Rotating the
// decorators therefore see each attempt on its own credential.
func (f CompleterFactory) Wrap(decorate func(Completer) Completer) CompleterFactory {
	return func(cred Credential) (Completer, error) {
		completer, err := f(cred)
		if err != nil {
			return nil, err
		}
		return decorate(completer), nil
	}
}

// RetryHook is told about each failed attempt that will be retried.
type RetryHook func(attempt int, credentialID string, err error)

// Rotating owns one credential at a time. A transient failure rotates to the
// next pool credential and retries the same request, up to one attempt per
// credential. Rotating is not safe for concurrent use: create one per worker.
type Rotating struct {
	pool    *CredentialPool
	factory CompleterFactory
	delay   time.Duration
	onRetry RetryHook
	sleep   func(context.Context, time.Duration) error

	current   Completer
	currentID string
}

// NewRotating acquires the initial credential from pool.
func NewRotating(pool *CredentialPool, factory CompleterFactory, delay time.Duration, onRetry RetryHook) (*Rotating, error) {
	if pool == nil || pool.Len() == 0 {
		return nil, ErrNoCredentials
	}
	r := &Rotating{
		pool:    pool,
		factory: factory,
		delay:   delay,
		onRetry: onRetry,
		sleep:   Sleep,
	}
	if err := r.rotate(); err != nil {
		return nil, err
	}
	return r, nil
}

// CredentialID returns the id of the credential currently in use.
func (r *Rotating) CredentialID() string {
	return r.currentID
}

// Complete sends req, rotating credentials on transient failures.
func (r *Rotating) Complete(ctx context.Context, req Request) (string, error) {
	attempts := r.pool.Len()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		reply, err := r.current.Complete(ctx, req)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if OutcomeOf(err) != TransientFailure || attempt == attempts {
			break
		}
		if r.onRetry != nil {
			r.onRetry(attempt, r.currentID, err)
		}
		if err := r.rotate(); err != nil {
			return "", err
		}
		if err := r.sleep(ctx, r.delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (r *Rotating) rotate() error {
	cred := r.pool.AcquireNext()
	completer, err := r.factory(cred)
	if err != nil {
		return err
	}
	r.current = completer
	r.currentID = cred.ID
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
