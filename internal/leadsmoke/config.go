// Package leadsmoke submits sample leads to a running intake service and
// checks the per-sink report it gets back.
package leadsmoke

import (
	"io"
	"time"

	service "github.com/ninelmnts/leadintake/internal/app"
)

// DefaultPath is the submission route exercised when Config.Path is empty.
const DefaultPath = "/ai-empire-lead-submission"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Path    string        // Submission route
	Count   int           // Number of leads to submit
	Workers int           // Concurrent submissions
	Timeout time.Duration // HTTP request timeout
	Require []string      // Sinks that must report ok
	Out     io.Writer     // Where reports are printed; nil discards them
}

// Outcome is the response to one submitted lead.
type Outcome struct {
	Tag    string
	Status int
	Report service.Report
	Body   string
}

// Summary aggregates a run.
type Summary struct {
	Submitted int
	Accepted  int
	// SinkOK counts ok results per sink name.
	SinkOK   map[string]int
	Duration time.Duration
}
