package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors. Their text is what clients see.
var (
	ErrMethodNotAllowed = errors.New("Method not allowed, POST only")                   //nolint:staticcheck // wire message
	ErrRelayForward     = errors.New("Failed to forward to AI Empire")                  //nolint:staticcheck // wire message
	ErrRelayStore       = errors.New("AI Empire processed but Supabase storage failed") //nolint:staticcheck // wire message
	ErrRelayInternal    = errors.New("Failed to process lead")                          //nolint:staticcheck // wire message
)

// KindError ties a failure to the operation that hit it and a sentinel kind.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *KindError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewKind returns a KindError without an underlying cause.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind returns a KindError wrapping err.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// publicMessage is the client-facing text for err: the kind when there is one.
func publicMessage(err error) string {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind.Error()
	}
	return err.Error()
}
