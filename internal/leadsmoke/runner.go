package leadsmoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ninelmnts/leadintake/internal/adapters/sink"
	service "github.com/ninelmnts/leadintake/internal/app"
	"github.com/ninelmnts/leadintake/pkg/logger"
)

// Run failures.
var (
	ErrUnhealthy          = errors.New("service unhealthy")
	ErrUnexpectedStatus   = errors.New("unexpected status")
	ErrRequiredSinkFailed = errors.New("required sink failed")
	ErrUnknownSink        = errors.New("unknown sink")
)

// Run checks health, submits cfg.Count sample leads and verifies every
// report. It returns the summary even when verification fails.
func Run(ctx context.Context, cfg *Config) (Summary, error) {
	cfg = withDefaults(cfg)
	for _, name := range cfg.Require {
		if !knownSink(name) {
			return Summary{}, fmt.Errorf("%w: %q", ErrUnknownSink, name)
		}
	}

	log := logger.Get().Named("leadsmoke")
	log.Info(ctx, "starting lead smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("path", cfg.Path),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Any("require", cfg.Require))

	client := newHTTPClient(cfg.Timeout)
	if err := checkServiceHealth(ctx, client, cfg.BaseURL); err != nil {
		return Summary{}, err
	}

	start := time.Now()
	outcomes := make([]Outcome, cfg.Count)
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i := range outcomes {
		i := i
		g.Go(func() error {
			o, err := submitOne(ctx, client, cfg.BaseURL+cfg.Path)
			if err != nil {
				return err
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("submission failed: %w", err)
	}

	sum := summarize(outcomes)
	sum.Duration = time.Since(start)
	printOutcomes(cfg.Out, outcomes)

	log.Info(ctx, "smoke run finished",
		logger.Int("submitted", sum.Submitted),
		logger.Int("accepted", sum.Accepted),
		logger.Any("sinkOK", sum.SinkOK),
		logger.Duration("duration", sum.Duration))
	return sum, verify(outcomes, cfg.Require)
}

func withDefaults(cfg *Config) *Config {
	c := *cfg
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Count < 1 {
		c.Count = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Out == nil {
		c.Out = io.Discard
	}
	return &c
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient, baseURL string) error {
	status, _, err := client.get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func submitOne(ctx context.Context, client *httpClient, url string) (Outcome, error) {
	tag := uuid.NewString()
	status, body, err := client.postLead(ctx, url, SampleLead(tag))
	if err != nil {
		return Outcome{}, fmt.Errorf("lead %s: %w", tag, err)
	}
	o := Outcome{Tag: tag, Status: status, Body: string(body)}
	if status == http.StatusOK {
		if err := json.Unmarshal(body, &o.Report); err != nil {
			return o, fmt.Errorf("lead %s: decode report: %w", tag, err)
		}
	}
	return o, nil
}

func summarize(outcomes []Outcome) Summary {
	sum := Summary{Submitted: len(outcomes), SinkOK: map[string]int{}}
	for _, o := range outcomes {
		if o.Status != http.StatusOK {
			continue
		}
		sum.Accepted++
		for _, name := range sinkNames {
			if sinkResult(o.Report, name).OK {
				sum.SinkOK[name]++
			}
		}
	}
	return sum
}

func verify(outcomes []Outcome, require []string) error {
	var errs []error
	for _, o := range outcomes {
		if o.Status != http.StatusOK {
			errs = append(errs, fmt.Errorf("%w: lead %s got %d: %s", ErrUnexpectedStatus, o.Tag, o.Status, o.Body))
			continue
		}
		for _, name := range require {
			if res := sinkResult(o.Report, name); !res.OK {
				errs = append(errs, fmt.Errorf("%w: lead %s sink %s: %s", ErrRequiredSinkFailed, o.Tag, name, res.Error))
			}
		}
	}
	return errors.Join(errs...)
}

func printOutcomes(w io.Writer, outcomes []Outcome) {
	for _, o := range outcomes {
		fmt.Fprintf(w, "--- lead %s (status %d) ---\n", o.Tag, o.Status)
		if o.Status != http.StatusOK {
			fmt.Fprintln(w, o.Body)
			continue
		}
		out, err := json.MarshalIndent(o.Report, "", "  ")
		if err != nil {
			fmt.Fprintln(w, o.Body)
			continue
		}
		fmt.Fprintln(w, string(out))
	}
}

var sinkNames = []string{sink.NameForward, sink.NameSaved, sink.NameSlack, sink.NameNotion, sink.NameEmail}

func knownSink(name string) bool { return slices.Contains(sinkNames, name) }

func sinkResult(r service.Report, name string) sink.Result {
	switch name {
	case sink.NameForward:
		return r.Forward
	case sink.NameSaved:
		return r.Saved
	case sink.NameSlack:
		return r.Integrations.Slack
	case sink.NameNotion:
		return r.Integrations.Notion
	case sink.NameEmail:
		return r.Integrations.Email
	default:
		return sink.Result{}
	}
}
