// Package sink delivers leads to the downstream systems they fan out to.
//
// Every sink reports a Result and never returns an error: network failures,
// missing configuration and non-2xx responses are all folded into the
// Result so one failing system cannot abort its siblings.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
)

// Sink names as they appear in reports, logs and metrics.
const (
	NameForward = "forward"
	NameSaved   = "saved"
	NameSlack   = "slack"
	NameNotion  = "notion"
	NameEmail   = "email"
)

// Sentinel errors reported in Result.Error.
var (
	ErrSupabaseEnvMissing = errors.New("Supabase env missing")  //nolint:staticcheck // wire message
	ErrSlackEnvMissing    = errors.New("Slack webhook missing") //nolint:staticcheck // wire message
	ErrNotionEnvMissing   = errors.New("Notion env missing")    //nolint:staticcheck // wire message
	ErrNotImplemented     = errors.New("not implemented")
)

// Result is the uniform outcome of one delivery attempt.
type Result struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Data   any    `json:"data,omitempty"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed wraps err as a failed Result.
func Failed(err error) Result {
	return Result{OK: false, Error: err.Error()}
}

// Sink is one downstream system.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, l lead.Lead) Result
}

// Option configures the HTTP behaviour shared by every sink.
type Option func(*transport)

// WithHTTPClient replaces the client used for outbound calls.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithTimeout bounds each outbound call. Zero keeps the client default.
func WithTimeout(d time.Duration) Option {
	return func(t *transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

type transport struct {
	client  *http.Client
	timeout time.Duration
}

func newTransport(opts []Option) transport {
	t := transport{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// response is what a sink needs from a completed round trip.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

// postJSON sends payload (or raw bytes) as a JSON POST and reads the full body.
func (t transport) postJSON(ctx context.Context, url string, payload any, headers map[string]string) (response, error) {
	var body []byte
	switch p := payload.(type) {
	case []byte:
		body = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return response{}, fmt.Errorf("encode payload: %w", err)
		}
		body = b
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}
	return response{status: resp.StatusCode, body: data}, nil
}

// jsonResult decodes a JSON response into Result.Data. An undecodable body
// fails the delivery even when the status was 2xx.
func jsonResult(resp response) Result {
	var data any
	if err := json.Unmarshal(resp.body, &data); err != nil {
		return Failed(fmt.Errorf("decode response (status %d): %w", resp.status, err))
	}
	return Result{OK: resp.ok(), Status: resp.status, Data: data}
}
