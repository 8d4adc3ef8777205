package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
	"github.com/ninelmnts/leadintake/pkg/logger"
	"github.com/ninelmnts/leadintake/pkg/metrics"
)

// Relay failure kinds.
var (
	ErrForwardFailed = errors.New("forward failed")
	ErrStoreFailed   = errors.New("store failed")
	ErrRelayFailed   = errors.New("relay failed")
)

// RelayStatusProcessed marks rows stored after the automation accepted the lead.
const RelayStatusProcessed = "processed_by_ai_empire"

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// RelayResult is returned when the automation accepted the lead and the row was stored.
type RelayResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	AIResult   any    `json:"ai_result"`
	SupabaseID any    `json:"supabase_id,omitempty"`
}

// RelayError describes where a relay stopped. Kind is one of the Err* kinds above.
type RelayError struct {
	Kind       error
	Status     int
	AIResult   any
	StoreError any
	Err        error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
	}
	return e.Kind.Error()
}

func (e *RelayError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Relay forwards the lead and, only when the automation accepts it, stores a
// normalized row enriched with the automation's qualification score.
// Unlike Submit, it stops at the first failure.
func (s *Service) Relay(ctx context.Context, l lead.Lead) (RelayResult, error) {
	fwd := s.dispatch(ctx, s.forwarder, l)
	if !fwd.OK {
		if fwd.Error != "" {
			// Never reached the automation.
			metrics.RecordRelayOutcome("relay_failed")
			return RelayResult{}, &RelayError{Kind: ErrRelayFailed, Err: errors.New(fwd.Error)}
		}
		metrics.RecordRelayOutcome("forward_failed")
		return RelayResult{}, &RelayError{Kind: ErrForwardFailed, Status: fwd.Status}
	}

	body, _ := fwd.Data.(string)
	var aiResult any
	if err := json.Unmarshal([]byte(body), &aiResult); err != nil {
		metrics.RecordRelayOutcome("relay_failed")
		return RelayResult{}, &RelayError{Kind: ErrRelayFailed, Err: fmt.Errorf("decode automation response: %w", err)}
	}

	saved := s.store.Insert(ctx, s.relayRow(l, aiResult))
	if !saved.OK {
		metrics.RecordRelayOutcome("store_failed")
		var storeErr any = saved.Error
		if saved.Data != nil {
			storeErr = saved.Data
		}
		s.logger.Error(ctx, "relay row not stored", logger.Int("status", saved.Status), logger.Any("store_error", storeErr))
		return RelayResult{}, &RelayError{Kind: ErrStoreFailed, Status: saved.Status, AIResult: aiResult, StoreError: storeErr}
	}

	metrics.RecordRelayOutcome("ok")
	return RelayResult{
		Success:    true,
		Message:    "Lead processed by AI Empire",
		AIResult:   aiResult,
		SupabaseID: insertedID(saved.Data),
	}, nil
}

func (s *Service) relayRow(l lead.Lead, aiResult any) map[string]any {
	score := any(0)
	if m, ok := aiResult.(map[string]any); ok {
		if v, ok := m["qualification_score"]; ok && v != nil {
			score = v
		}
	}
	return map[string]any{
		"name":                l.NameValue(),
		"email":               l.EmailValue(),
		"company":             l.Company(),
		"business_type":       l.ProjectType(),
		"budget":              l.BudgetAmount(),
		"timeline":            l.Timeline(),
		"project_type":        l.ProjectType(),
		"description":         l.Description(),
		"plan":                l.Plan(),
		"qualification_score": score,
		"status":              RelayStatusProcessed,
		"created_at":          s.now().UTC().Format(isoMillis),
	}
}

// insertedID extracts the id of the first row of a representation response.
func insertedID(data any) any {
	rows, ok := data.([]any)
	if !ok || len(rows) == 0 {
		return nil
	}
	row, ok := rows[0].(map[string]any)
	if !ok {
		return nil
	}
	return row["id"]
}
