package appErrors

import "errors"

// Kind classifies why a delivery attempt failed.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindTransient     Kind = "transient"
	KindPermanent     Kind = "permanent"
)

// DeliveryError is what the dispatch boundary hands upward instead of raw
// provider errors. Reason is the human-readable failure stored on the message.
type DeliveryError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *DeliveryError) Error() string {
	return string(e.Kind) + ": " + e.Reason
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func NewDeliveryError(kind Kind, reason string, err error) *DeliveryError {
	return &DeliveryError{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	var ce *ErrConfiguration
	if errors.As(err, &ce) {
		return KindConfiguration
	}
	return ""
}
