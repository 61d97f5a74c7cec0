package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyReply reports a completion without usable content.
	ErrEmptyReply = errors.New("oracle returned an empty reply")
	// ErrNoCredentials reports an empty credential pool.
	ErrNoCredentials = errors.New("no oracle credentials configured")
)

// Outcome tags the result of one oracle call.
type Outcome int

const (
	// Ok means the call produced a usable value.
	Ok Outcome = iota
	// TransientFailure may succeed on retry or with another credential.
	TransientFailure
	// PermanentFailure will not succeed on retry.
	PermanentFailure
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case TransientFailure:
		return "transient"
	case PermanentFailure:
		return "permanent"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result carries a value or a tagged failure.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// Success wraps a value.
func Success[T any](value T) Result[T] {
	return Result[T]{Value: value, Outcome: Ok}
}

// Failure wraps an error, tagging it with OutcomeOf.
func Failure[T any](err error) Result[T] {
	return Result[T]{Outcome: OutcomeOf(err), Err: err}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Outcome == Ok
}

// CallError reports a failed oracle operation together with its outcome tag.
type CallError struct {
	Operation string
	Outcome   Outcome
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Operation, e.Outcome, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// AsError returns the failure as a *CallError, or nil on success.
func (r Result[T]) AsError(operation string) error {
	if r.OK() {
		return nil
	}
	return &CallError{Operation: operation, Outcome: r.Outcome, Err: r.Err}
}

// StatusError is a non-2xx reply from a chat completion endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("oracle error (status %d): %s", err.StatusCode, err.Body)
}

// OutcomeOf classifies an error. Rate limits, server errors, credential
// rejections, transport failures, per-call deadlines and empty replies are
// transient; other client errors and cancellation are permanent.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Ok
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNoCredentials) {
		return PermanentFailure
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrEmptyReply) {
		return TransientFailure
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return outcomeForStatus(statusErr.StatusCode)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return outcomeForStatus(apiErr.HTTPStatusCode)
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return outcomeForStatus(requestErr.HTTPStatusCode)
	}
	return TransientFailure
}

func outcomeForStatus(code int) Outcome {
	switch {
	case code == 0:
		return TransientFailure
	case code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code == http.StatusTooEarly,
		code == http.StatusTooManyRequests,
		code == http.StatusUnauthorized,
		code == http.StatusForbidden,
		code >= 500:
		return TransientFailure
	case code >= 400:
		return PermanentFailure
	default:
		return TransientFailure
	}
}
