package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	service "github.com/ninelmnts/leadintake/internal/app"
	"github.com/ninelmnts/leadintake/internal/domain/lead"
	"github.com/ninelmnts/leadintake/pkg/logger"
	"github.com/ninelmnts/leadintake/pkg/metrics"
)

// RelayHandler passes a lead through the automation and stores the scored row.
type RelayHandler struct {
	svc    LeadService
	logger logger.Logger
}

// NewRelayHandler creates a new relay handler.
func NewRelayHandler(svc LeadService, l logger.Logger) *RelayHandler {
	return &RelayHandler{svc: svc, logger: l}
}

type forwardFailedResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type storeFailedResponse struct {
	Error         string `json:"error"`
	AIResult      any    `json:"ai_result"`
	SupabaseError any    `json:"supabase_error"`
}

// HandleRelay handles POST /ai-empire-lead.
func (h *RelayHandler) HandleRelay(w http.ResponseWriter, r *http.Request) {
	const op = "api.relay_lead"
	ctx := r.Context()
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, NewKind(op, ErrMethodNotAllowed))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error(ctx, "relay body unreadable", logger.Error(err))
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrRelayInternal, err))
		return
	}
	l, err := lead.Decode(body)
	if err != nil {
		metrics.RecordLeadRejected("malformed")
		h.logger.Error(ctx, "relay body malformed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrRelayInternal, err))
		return
	}
	metrics.RecordLeadReceived("relay")

	res, err := h.svc.Relay(context.WithoutCancel(ctx), l)
	if err == nil {
		writeJSON(w, http.StatusOK, res)
		return
	}

	h.logger.Error(ctx, "relay failed", logger.Error(err))
	var rerr *service.RelayError
	switch {
	case errors.Is(err, service.ErrForwardFailed):
		status := 0
		if errors.As(err, &rerr) {
			status = rerr.Status
		}
		writeJSON(w, http.StatusInternalServerError, forwardFailedResponse{Error: ErrRelayForward.Error(), Status: status})
	case errors.Is(err, service.ErrStoreFailed) && errors.As(err, &rerr):
		writeJSON(w, http.StatusInternalServerError, storeFailedResponse{
			Error:         ErrRelayStore.Error(),
			AIResult:      rerr.AIResult,
			SupabaseError: rerr.StoreError,
		})
	default:
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrRelayInternal, err))
	}
}
