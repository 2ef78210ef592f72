package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/workforce-attendance/internal/application"
	"github.com/example/workforce-attendance/internal/period"
)

type attendanceService interface {
	Mark(ctx context.Context, params application.MarkAttendanceParams) (application.AttendanceRecordView, error)
	List(ctx context.Context, principal application.Principal) ([]application.AttendanceRecordView, error)
	ListToday(ctx context.Context, principal application.Principal) ([]application.AttendanceRecordView, error)
}

type subjectDirectory interface {
	ListMarkableSubjects(ctx context.Context, principal application.Principal) ([]application.User, error)
}

type AttendanceHandler struct {
	service   attendanceService
	subjects  subjectDirectory
	responder responder
	logger    *slog.Logger
}

func NewAttendanceHandler(service attendanceService, subjects subjectDirectory, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, subjects: subjects, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req markAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Mark", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode attendance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Mark", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse attendance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Mark", "principal_id", principal.UserID, "subject_id", input.SubjectID)

	view, err := h.service.Mark(r.Context(), application.MarkAttendanceParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance marking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("record_id", view.Record.ID).InfoContext(r.Context(), "attendance marked")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, attendanceViewResponse{Record: toAttendanceViewDTO(view)})
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	views, err := h.service.List(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceListResponse{Records: toAttendanceViewDTOs(views)})
}

func (h *AttendanceHandler) ListToday(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListToday", "principal_id", principal.UserID)

	views, err := h.service.ListToday(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "today's attendance listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceListResponse{Records: toAttendanceViewDTOs(views)})
}

func (h *AttendanceHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.subjects == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListSubjects", "principal_id", principal.UserID)

	subjects, err := h.subjects.ListMarkableSubjects(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "markable subject listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]userDTO, 0, len(subjects))
	for _, subject := range subjects {
		dtos = append(dtos, toUserDTO(subject))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userListResponse{Users: dtos})
}

type markAttendanceRequest struct {
	SubjectID   string  `json:"subject_id"`
	Status      string  `json:"status"`
	CheckInTime *string `json:"check_in_time,omitempty"`
	Date        *string `json:"date,omitempty"`
}

func (req markAttendanceRequest) toInput() (application.AttendanceInput, error) {
	input := application.AttendanceInput{
		SubjectID: strings.TrimSpace(req.SubjectID),
		Status:    application.AttendanceStatus(strings.TrimSpace(req.Status)),
	}

	if req.CheckInTime != nil && strings.TrimSpace(*req.CheckInTime) != "" {
		checkIn, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.CheckInTime))
		if err != nil {
			return application.AttendanceInput{}, errors.New("出勤時刻の形式が不正です。")
		}
		input.CheckInTime = &checkIn
	}

	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		date, err := period.ParseKey(strings.TrimSpace(*req.Date))
		if err != nil {
			return application.AttendanceInput{}, errors.New("日付は YYYY-MM-DD 形式で指定してください。")
		}
		input.Date = date
	}

	return input, nil
}

type attendanceRecordDTO struct {
	ID          string  `json:"id"`
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	Status      string  `json:"status"`
	CheckInTime *string `json:"check_in_time,omitempty"`
	MarkedBy    string  `json:"marked_by"`
	Day         string  `json:"day"`
	CreatedAt   string  `json:"created_at"`
}

type attendanceViewDTO struct {
	attendanceRecordDTO
	Subject userSummaryDTO `json:"subject"`
	Marker  userSummaryDTO `json:"marker"`
}

type attendanceViewResponse struct {
	Record attendanceViewDTO `json:"record"`
}

type attendanceListResponse struct {
	Records []attendanceViewDTO `json:"records"`
}

func toAttendanceRecordDTO(record application.AttendanceRecord) attendanceRecordDTO {
	dto := attendanceRecordDTO{
		ID:          record.ID,
		SubjectID:   record.SubjectID,
		SubjectName: record.SubjectName,
		Status:      string(record.Status),
		MarkedBy:    record.MarkedBy,
		Day:         period.Key(record.Day),
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if record.CheckInTime != nil {
		checkIn := record.CheckInTime.UTC().Format(time.RFC3339Nano)
		dto.CheckInTime = &checkIn
	}
	return dto
}

func toAttendanceViewDTO(view application.AttendanceRecordView) attendanceViewDTO {
	return attendanceViewDTO{
		attendanceRecordDTO: toAttendanceRecordDTO(view.Record),
		Subject:             toUserSummaryDTO(view.Subject),
		Marker:              toUserSummaryDTO(view.Marker),
	}
}

func toAttendanceViewDTOs(views []application.AttendanceRecordView) []attendanceViewDTO {
	dtos := make([]attendanceViewDTO, 0, len(views))
	for _, view := range views {
		dtos = append(dtos, toAttendanceViewDTO(view))
	}
	return dtos
}
