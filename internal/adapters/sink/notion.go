package sink

import (
	"context"
	"strings"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
)

const (
	defaultNotionAPIURL  = "https://api.notion.com/v1"
	defaultNotionVersion = "2022-06-28"
)

// Notion creates one page per lead in a database.
type Notion struct {
	apiURL     string
	version    string
	token      string
	databaseID string
	t          transport
}

// NotionOption configures the Notion sink beyond the shared transport.
type NotionOption func(*Notion)

// WithNotionAPIURL points the sink at another API base, e.g. a test server.
func WithNotionAPIURL(u string) NotionOption {
	return func(n *Notion) {
		if u != "" {
			n.apiURL = strings.TrimRight(u, "/")
		}
	}
}

// WithNotionVersion overrides the Notion-Version header.
func WithNotionVersion(v string) NotionOption {
	return func(n *Notion) {
		if v != "" {
			n.version = v
		}
	}
}

// NewNotion creates a Notion sink. Both token and databaseID are required for delivery.
func NewNotion(token, databaseID string, nopts []NotionOption, opts ...Option) *Notion {
	n := &Notion{
		apiURL:     defaultNotionAPIURL,
		version:    defaultNotionVersion,
		token:      token,
		databaseID: databaseID,
		t:          newTransport(opts),
	}
	for _, o := range nopts {
		o(n)
	}
	return n
}

type notionText struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func richText(s string) []notionText {
	var t notionText
	t.Text.Content = s
	return []notionText{t}
}

type notionPage struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]any `json:"properties"`
}

// Name implements Sink.
func (n *Notion) Name() string { return NameNotion }

// Deliver implements Sink.
func (n *Notion) Deliver(ctx context.Context, l lead.Lead) Result {
	if n.token == "" || n.databaseID == "" {
		return Failed(ErrNotionEnvMissing)
	}
	resp, err := n.t.postJSON(ctx, n.apiURL+"/pages", n.page(l), map[string]string{
		"Authorization":  "Bearer " + n.token,
		"Notion-Version": n.version,
	})
	if err != nil {
		return Failed(err)
	}
	return jsonResult(resp)
}

func (n *Notion) page(l lead.Lead) notionPage {
	title := l.Name
	if title == "" {
		title = "Unnamed"
	}
	var p notionPage
	p.Parent.DatabaseID = n.databaseID
	p.Properties = map[string]any{
		"Name":    map[string]any{"title": richText(title)},
		"Email":   map[string]any{"rich_text": richText(l.Email)},
		"Company": map[string]any{"rich_text": richText(l.Company())},
	}
	return p
}
