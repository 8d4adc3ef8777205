// Package service fans a validated lead out to every configured sink and
// collects the outcomes into a single report.
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ninelmnts/leadintake/internal/adapters/sink"
	"github.com/ninelmnts/leadintake/internal/config"
	"github.com/ninelmnts/leadintake/internal/domain/lead"
	"github.com/ninelmnts/leadintake/pkg/logger"
	"github.com/ninelmnts/leadintake/pkg/metrics"
)

// RecordStore is a sink that can also insert arbitrary rows.
type RecordStore interface {
	sink.Sink
	Insert(ctx context.Context, row any) sink.Result
}

// Report is the per-sink outcome of one submission.
type Report struct {
	Forward      sink.Result  `json:"forward"`
	Saved        sink.Result  `json:"saved"`
	Integrations Integrations `json:"integrations"`
}

// Integrations holds the outcomes of the concurrently dispatched sinks.
type Integrations struct {
	Slack  sink.Result `json:"slack"`
	Notion sink.Result `json:"notion"`
	Email  sink.Result `json:"email"`
}

// Service implements lead submission and relay.
type Service struct {
	forwarder sink.Sink
	store     RecordStore
	slack     sink.Sink
	notion    sink.Sink
	email     sink.Sink

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithForwarder replaces the forward sink.
func WithForwarder(f sink.Sink) Option {
	return func(s *Service) {
		if f != nil {
			s.forwarder = f
		}
	}
}

// WithRecordStore replaces the persistence sink.
func WithRecordStore(r RecordStore) Option {
	return func(s *Service) {
		if r != nil {
			s.store = r
		}
	}
}

// WithNotifiers replaces the concurrently dispatched sinks. Nil arguments keep the current sink.
func WithNotifiers(slack, notion, email sink.Sink) Option {
	return func(s *Service) {
		if slack != nil {
			s.slack = slack
		}
		if notion != nil {
			s.notion = notion
		}
		if email != nil {
			s.email = email
		}
	}
}

// WithClock overrides the time source used for relay rows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. Without options every integration is
// unconfigured and the forward sink targets config.DefaultForwardURL.
func New(opts ...Option) *Service {
	s := &Service{
		forwarder: sink.NewForwarder(config.DefaultForwardURL),
		store:     sink.NewRecordStore("", "", ""),
		slack:     sink.NewSlack("", ""),
		notion:    sink.NewNotion("", "", nil),
		email:     sink.NewEmail(sink.SMTPSettings{}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// NewFromConfig builds every sink from cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) *Service {
	var transport []sink.Option
	if cfg.SinkTimeoutMS > 0 {
		transport = append(transport, sink.WithTimeout(time.Duration(cfg.SinkTimeoutMS)*time.Millisecond))
	}

	base := []Option{
		WithForwarder(sink.NewForwarder(cfg.ForwardURL, transport...)),
		WithRecordStore(sink.NewRecordStore(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseTable, transport...)),
		WithNotifiers(
			sink.NewSlack(cfg.SlackWebhookURL, cfg.SlackChannel, transport...),
			sink.NewNotion(cfg.NotionToken, cfg.NotionDatabaseID, []sink.NotionOption{
				sink.WithNotionAPIURL(cfg.NotionAPIURL),
				sink.WithNotionVersion(cfg.NotionVersion),
			}, transport...),
			sink.NewEmail(sink.SMTPSettings{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				From:     cfg.EmailFrom,
				To:       cfg.EmailTo,
			}),
		),
	}
	return New(append(base, opts...)...)
}

// Submit forwards the lead, then persists it, then notifies Slack, Notion and
// email concurrently. It always returns a complete report; failures are only
// visible inside it.
func (s *Service) Submit(ctx context.Context, l lead.Lead) Report {
	var r Report

	r.Forward = s.dispatch(ctx, s.forwarder, l)
	r.Saved = s.dispatch(ctx, s.store, l)

	// No errgroup.WithContext: a failing sink must not cancel its siblings.
	var g errgroup.Group
	g.Go(func() error {
		r.Integrations.Slack = s.dispatch(ctx, s.slack, l)
		return nil
	})
	g.Go(func() error {
		r.Integrations.Notion = s.dispatch(ctx, s.notion, l)
		return nil
	})
	g.Go(func() error {
		r.Integrations.Email = s.dispatch(ctx, s.email, l)
		return nil
	})
	_ = g.Wait()

	return r
}

// dispatch runs one sink with timing, logging and panic containment.
func (s *Service) dispatch(ctx context.Context, target sink.Sink, l lead.Lead) (res sink.Result) {
	name := target.Name()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = sink.Failed(fmt.Errorf("sink %s panicked: %v", name, p))
		}
		took := time.Since(start)
		metrics.RecordSinkDispatch(name, res.OK, float64(took.Milliseconds()))
		if res.OK {
			s.logger.Debug(ctx, "sink delivered", logger.String("sink", name), logger.Int("status", res.Status), logger.Duration("took", took))
			return
		}
		s.logger.Warn(ctx, "sink delivery failed",
			logger.String("sink", name),
			logger.Int("status", res.Status),
			logger.String("error", res.Error),
			logger.Duration("took", took),
		)
	}()
	return target.Deliver(ctx, l)
}
