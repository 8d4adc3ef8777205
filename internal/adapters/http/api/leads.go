package api

import (
	"context"
	"io"
	"net/http"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
	"github.com/ninelmnts/leadintake/pkg/logger"
	"github.com/ninelmnts/leadintake/pkg/metrics"
)

// LeadHandler accepts lead submissions and returns the fan-out report.
type LeadHandler struct {
	svc    LeadService
	logger logger.Logger
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(svc LeadService, l logger.Logger) *LeadHandler {
	return &LeadHandler{svc: svc, logger: l}
}

// HandleRoot serves POST / and 404s every other unregistered path.
func (h *LeadHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.HandleSubmit(w, r)
}

// HandleSubmit handles POST /ai-empire-lead-submission.
func (h *LeadHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_lead"
	ctx := r.Context()
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, NewKind(op, ErrMethodNotAllowed))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		// an unreadable body is treated like a malformed one
		h.logger.Debug(ctx, "read lead body", logger.Error(err))
		body = nil
	}
	l := lead.Parse(body)
	if err := l.Validate(); err != nil {
		metrics.RecordLeadRejected("missing_name_or_email")
		writeError(w, http.StatusBadRequest, NewKind(op, err))
		return
	}
	metrics.RecordLeadReceived("submit")

	// Sinks must finish even if the caller goes away.
	report := h.svc.Submit(context.WithoutCancel(ctx), l)
	h.logger.Info(ctx, "lead submitted",
		logger.String("email", l.Email),
		logger.Bool("forward_ok", report.Forward.OK),
		logger.Bool("saved_ok", report.Saved.OK),
	)
	writeJSON(w, http.StatusOK, report)
}
