package sink

import (
	"context"
	"encoding/json"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
)

// Forwarder posts the raw lead to the external automation endpoint.
type Forwarder struct {
	url string
	t   transport
}

// NewForwarder creates a Forwarder targeting url.
func NewForwarder(url string, opts ...Option) *Forwarder {
	return &Forwarder{url: url, t: newTransport(opts)}
}

// Name implements Sink.
func (f *Forwarder) Name() string { return NameForward }

// URL returns the configured endpoint.
func (f *Forwarder) URL() string { return f.url }

// Deliver implements Sink. Data carries the response text verbatim.
func (f *Forwarder) Deliver(ctx context.Context, l lead.Lead) Result {
	raw, err := json.Marshal(l)
	if err != nil {
		return Failed(err)
	}
	resp, err := f.t.postJSON(ctx, f.url, raw, nil)
	if err != nil {
		return Failed(err)
	}
	return Result{OK: resp.ok(), Status: resp.status, Data: string(resp.body)}
}
