package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/workforce-attendance/internal/application"
	"github.com/example/workforce-attendance/internal/period"
)

type leaveService interface {
	Submit(ctx context.Context, params application.SubmitLeaveRequestParams) (application.LeaveRequest, error)
	Decide(ctx context.Context, params application.DecideLeaveRequestParams) (application.LeaveRequest, error)
	List(ctx context.Context, principal application.Principal) ([]application.LeaveRequest, error)
}

type LeaveHandler struct {
	service   leaveService
	responder responder
	logger    *slog.Logger
}

func NewLeaveHandler(service leaveService, logger *slog.Logger) *LeaveHandler {
	base := defaultLogger(logger)
	return &LeaveHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *LeaveHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LeaveHandler", operation, attrs...)
}

func (h *LeaveHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req leaveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Submit", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode leave request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Submit", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse leave request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Submit", "principal_id", principal.UserID)

	request, err := h.service.Submit(r.Context(), application.SubmitLeaveRequestParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "leave submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("request_id", request.ID).InfoContext(r.Context(), "leave request submitted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, leaveResponse{Request: toLeaveRequestDTO(request)})
}

func (h *LeaveHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID := strings.TrimSpace(chi.URLParam(r, "requestID"))
	if requestID == "" {
		h.log(r.Context(), "Decide", "error_kind", "bad_request").ErrorContext(r.Context(), "missing leave request id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req leaveDecisionBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Decide", "principal_id", principal.UserID, "request_id", requestID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var approve bool
	switch strings.TrimSpace(req.Status) {
	case string(application.LeaveApproved):
		approve = true
	case string(application.LeaveRejected):
		approve = false
	default:
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("ステータスは approved または rejected を指定してください。"))
		return
	}

	logger := h.log(r.Context(), "Decide", "principal_id", principal.UserID, "request_id", requestID)

	request, err := h.service.Decide(r.Context(), application.DecideLeaveRequestParams{
		Principal: principal,
		RequestID: requestID,
		Approve:   approve,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "leave decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(request.Status)).InfoContext(r.Context(), "leave request decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leaveResponse{Request: toLeaveRequestDTO(request)})
}

func (h *LeaveHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	requests, err := h.service.List(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "leave listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]leaveRequestDTO, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, toLeaveRequestDTO(request))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leaveListResponse{Requests: dtos})
}

type leaveRequestBody struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

func (req leaveRequestBody) toInput() (application.LeaveRequestInput, error) {
	input := application.LeaveRequestInput{Reason: req.Reason}

	if trimmed := strings.TrimSpace(req.From); trimmed != "" {
		from, err := period.ParseKey(trimmed)
		if err != nil {
			return application.LeaveRequestInput{}, errors.New("開始日は YYYY-MM-DD 形式で指定してください。")
		}
		input.From = from
	}
	if trimmed := strings.TrimSpace(req.To); trimmed != "" {
		to, err := period.ParseKey(trimmed)
		if err != nil {
			return application.LeaveRequestInput{}, errors.New("終了日は YYYY-MM-DD 形式で指定してください。")
		}
		input.To = to
	}

	return input, nil
}

type leaveDecisionBody struct {
	Status string `json:"status"`
}

type leaveRequestDTO struct {
	ID        string  `json:"id"`
	SubjectID string  `json:"subject_id"`
	FromDay   string  `json:"from_day"`
	ToDay     string  `json:"to_day"`
	Reason    string  `json:"reason"`
	Status    string  `json:"status"`
	DecidedBy *string `json:"decided_by,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type leaveResponse struct {
	Request leaveRequestDTO `json:"request"`
}

type leaveListResponse struct {
	Requests []leaveRequestDTO `json:"requests"`
}

func toLeaveRequestDTO(request application.LeaveRequest) leaveRequestDTO {
	return leaveRequestDTO{
		ID:        request.ID,
		SubjectID: request.SubjectID,
		FromDay:   period.Key(request.FromDay),
		ToDay:     period.Key(request.ToDay),
		Reason:    request.Reason,
		Status:    string(request.Status),
		DecidedBy: request.DecidedBy,
		CreatedAt: request.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: request.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
