// Package deliver defines the delivery-provider contract: the pluggable
// sink that receives a finished session. The reference provider renders
// the session and writes it to the platform clipboard.
package deliver

import (
	"context"

	"github.com/grabr-ai/grabr/grab"
)

// Provider is a delivery sink for finished sessions.
type Provider interface {
	// ID is the stable registry key.
	ID() string

	// Label is the human-readable name shown in interactive surfaces.
	Label() string

	// SendContext delivers the session. An error means delivery failed;
	// the session itself stays valid.
	SendContext(ctx context.Context, s *grab.Session) error
}

// SuccessHook is implemented by providers that want a callback after a
// successful delivery.
type SuccessHook interface {
	OnSuccess(s *grab.Session)
}

// ErrorHook is implemented by providers that want a callback after a
// failed delivery.
type ErrorHook interface {
	OnError(s *grab.Session, err error)
}

// NotifySuccess invokes the provider's success hook when present.
func NotifySuccess(p Provider, s *grab.Session) {
	if h, ok := p.(SuccessHook); ok {
		h.OnSuccess(s)
	}
}

// NotifyError invokes the provider's error hook when present.
func NotifyError(p Provider, s *grab.Session, err error) {
	if h, ok := p.(ErrorHook); ok {
		h.OnError(s, err)
	}
}
