package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a remote-call failure. Every adapter classifies each
// failure exactly once at its boundary; layers above branch on the kind and
// never on transport details.
type Kind string

const (
	// KindTransient covers 5xx-equivalent responses, timeouts and connection
	// resets. Retrying is expected to help.
	KindTransient Kind = "transient"
	// KindPermanent covers 4xx-equivalent responses and malformed payloads.
	// Retrying will not help.
	KindPermanent Kind = "permanent"
	// KindDependencyDown marks a dependency that is entirely unreachable.
	KindDependencyDown Kind = "dependency_down"
	// KindCancelled marks a caller-initiated cancellation, not a drop.
	KindCancelled Kind = "cancelled"
)

// Fault is a classified remote failure. ItemID is set for per-item failures
// inside a batch step.
type Fault struct {
	Kind   Kind
	Op     string
	ItemID string
	Status int
	Err    error
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("%s: %s", f.Op, f.Kind)
	if f.ItemID != "" {
		msg += " item=" + f.ItemID
	}
	if f.Status != 0 {
		msg += fmt.Sprintf(" status=%d", f.Status)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func Transient(op string, err error) *Fault {
	return &Fault{Kind: KindTransient, Op: op, Err: err}
}

func Permanent(op string, err error) *Fault {
	return &Fault{Kind: KindPermanent, Op: op, Err: err}
}

func DependencyDown(op string, err error) *Fault {
	return &Fault{Kind: KindDependencyDown, Op: op, Err: err}
}

func Cancelled(op string, err error) *Fault {
	return &Fault{Kind: KindCancelled, Op: op, Err: err}
}

// FromStatus classifies an HTTP-style status code: 5xx is transient,
// anything else non-2xx is permanent.
func FromStatus(op string, status int, err error) *Fault {
	kind := KindPermanent
	if status >= 500 && status < 600 {
		kind = KindTransient
	}
	return &Fault{Kind: kind, Op: op, Status: status, Err: err}
}

// FromTransport classifies a transport-level error: cancellation stays a
// cancellation, a timeout is transient per the retry contract, anything else
// (connection refused, reset, DNS) is transient as well.
func FromTransport(op string, err error) *Fault {
	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled(op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return Transient(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient(op, err)
	}
	return Transient(op, err)
}

// KindOf extracts the classification from err. Unclassified errors come back
// as permanent so that an adapter bug never spins a retry loop.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	}
	return KindPermanent
}

// Retryable reports whether err should consume a retry attempt.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

// ItemID returns the per-item identifier attached to err, if any.
func ItemID(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.ItemID
	}
	return ""
}
