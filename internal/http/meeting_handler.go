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
)

type meetingService interface {
	Create(ctx context.Context, params application.CreateMeetingParams) (application.Meeting, error)
	UpdateStatus(ctx context.Context, params application.UpdateMeetingStatusParams) (application.Meeting, error)
	List(ctx context.Context, principal application.Principal) ([]application.Meeting, error)
}

type MeetingHandler struct {
	service   meetingService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	meeting, err := h.service.Create(r.Context(), application.CreateMeetingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("meeting_id", meeting.ID).InfoContext(r.Context(), "meeting created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

func (h *MeetingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID := strings.TrimSpace(chi.URLParam(r, "meetingID"))
	if meetingID == "" {
		h.log(r.Context(), "UpdateStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "missing meeting id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req meetingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateStatus", "principal_id", principal.UserID, "meeting_id", meetingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateStatus", "principal_id", principal.UserID, "meeting_id", meetingID)

	meeting, err := h.service.UpdateStatus(r.Context(), application.UpdateMeetingStatusParams{
		Principal: principal,
		MeetingID: meetingID,
		Status:    application.MeetingStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting status update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(meeting.Status)).InfoContext(r.Context(), "meeting status updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	meetings, err := h.service.List(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		dtos = append(dtos, toMeetingDTO(meeting))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingListResponse{Meetings: dtos})
}

type meetingRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Start           string   `json:"start"`
	DurationMinutes int      `json:"duration_minutes"`
	AttendeeIDs     []string `json:"attendee_ids"`
	JoinURL         string   `json:"join_url,omitempty"`
}

func (req meetingRequest) toInput() (application.MeetingInput, error) {
	input := application.MeetingInput{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		AttendeeIDs:     req.AttendeeIDs,
		JoinURL:         req.JoinURL,
	}

	if trimmed := strings.TrimSpace(req.Start); trimmed != "" {
		start, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return application.MeetingInput{}, errors.New("開始日時の形式が不正です。")
		}
		input.Start = start
	}

	return input, nil
}

type meetingStatusRequest struct {
	Status string `json:"status"`
}

type meetingDTO struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     *string  `json:"description,omitempty"`
	Start           string   `json:"start"`
	DurationMinutes int      `json:"duration_minutes"`
	OrganizerID     string   `json:"organizer_id"`
	AttendeeIDs     []string `json:"attendee_ids"`
	Status          string   `json:"status"`
	JoinURL         *string  `json:"join_url,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type meetingResponse struct {
	Meeting meetingDTO `json:"meeting"`
}

type meetingListResponse struct {
	Meetings []meetingDTO `json:"meetings"`
}

func toMeetingDTO(meeting application.Meeting) meetingDTO {
	return meetingDTO{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Description:     meeting.Description,
		Start:           meeting.Start.UTC().Format(time.RFC3339Nano),
		DurationMinutes: meeting.DurationMinutes,
		OrganizerID:     meeting.OrganizerID,
		AttendeeIDs:     meeting.AttendeeIDs,
		Status:          string(meeting.Status),
		JoinURL:         meeting.JoinURL,
		CreatedAt:       meeting.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       meeting.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
