package sink

import (
	"context"
	"net/url"
	"strings"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
)

// RecordStore inserts rows through Supabase's PostgREST endpoint using the
// service-role credential.
type RecordStore struct {
	baseURL string
	key     string
	table   string
	t       transport
}

// NewRecordStore creates a RecordStore. An empty baseURL or key leaves the
// store unconfigured; deliveries then fail without touching the network.
func NewRecordStore(baseURL, serviceRoleKey, table string, opts ...Option) *RecordStore {
	if table == "" {
		table = "leads"
	}
	return &RecordStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     serviceRoleKey,
		table:   table,
		t:       newTransport(opts),
	}
}

// Name implements Sink.
func (s *RecordStore) Name() string { return NameSaved }

// Configured reports whether both URL and credential are present.
func (s *RecordStore) Configured() bool {
	return s.baseURL != "" && s.key != ""
}

// Deliver implements Sink by inserting the lead as submitted.
func (s *RecordStore) Deliver(ctx context.Context, l lead.Lead) Result {
	return s.Insert(ctx, l)
}

// Insert posts row to the table and returns the inserted representation.
func (s *RecordStore) Insert(ctx context.Context, row any) Result {
	if !s.Configured() {
		return Failed(ErrSupabaseEnvMissing)
	}
	endpoint := s.baseURL + "/rest/v1/" + url.PathEscape(s.table)
	resp, err := s.t.postJSON(ctx, endpoint, row, map[string]string{
		"Authorization": "Bearer " + s.key,
		"apikey":        s.key,
		"Prefer":        "return=representation",
	})
	if err != nil {
		return Failed(err)
	}
	return jsonResult(resp)
}
