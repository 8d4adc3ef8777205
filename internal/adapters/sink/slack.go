package sink

import (
	"context"
	"fmt"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
)

// Slack posts a short notification to an incoming webhook.
type Slack struct {
	webhookURL string
	channel    string
	t          transport
}

// NewSlack creates a Slack notifier. channel may be empty.
func NewSlack(webhookURL, channel string, opts ...Option) *Slack {
	return &Slack{webhookURL: webhookURL, channel: channel, t: newTransport(opts)}
}

type slackMessage struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// Name implements Sink.
func (s *Slack) Name() string { return NameSlack }

// Deliver implements Sink. Text carries the webhook's response body.
func (s *Slack) Deliver(ctx context.Context, l lead.Lead) Result {
	if s.webhookURL == "" {
		return Failed(ErrSlackEnvMissing)
	}
	msg := slackMessage{Channel: s.channel, Text: SlackText(l)}
	resp, err := s.t.postJSON(ctx, s.webhookURL, msg, nil)
	if err != nil {
		return Failed(err)
	}
	return Result{OK: resp.ok(), Status: resp.status, Text: string(resp.body)}
}

// SlackText renders the notification line for l.
func SlackText(l lead.Lead) string {
	return fmt.Sprintf("New lead: *%s*\n%s - %s", l.Name, l.Company(), l.Email)
}
