package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workforce-attendance/internal/application"
	"github.com/example/workforce-attendance/internal/logging"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errInvalidMeetingID    = errors.New("無効な会議 ID です。")
	errInvalidRequestID    = errors.New("無効な申請 ID です。")
	errMissingSessionToken = errors.New("認証トークンを指定してください")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application errors into localized HTTP
// responses. Collaborator failures stay opaque; only their status leaks.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	default:
		var dup *application.DuplicateForPeriodError
		if errors.As(err, &dup) {
			r.writeJSON(ctx, w, http.StatusConflict, conflictResponse{
				ErrorCode: "ATTENDANCE_DUPLICATE",
				Message:   "この日付の勤怠はすでに登録されています。",
				Existing:  toAttendanceRecordDTO(dup.Existing),
			})
			return
		}

		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "email is required":
		return "メールアドレスは必須です。"
	case "email is invalid":
		return "メールアドレスの形式が不正です。"
	case "email is already registered":
		return "このメールアドレスはすでに登録されています。"
	case "display name is required":
		return "表示名は必須です。"
	case "role is invalid":
		return "ロールの指定が不正です。"
	case "password must be at least 8 characters":
		return "パスワードは 8 文字以上で指定してください。"
	case "status is invalid":
		return "勤怠ステータスの指定が不正です。"
	case "check-in time is required for present status":
		return "出勤の場合は出勤時刻を指定してください。"
	case "title is required":
		return "タイトルは必須です。"
	case "start time is required":
		return "開始日時は必須です。"
	case "duration must be a positive number of minutes":
		return "所要時間は正の分数で指定してください。"
	case "at least one attendee is required":
		return "少なくとも 1 名の参加者を指定してください。"
	case "status must be completed or cancelled":
		return "ステータスは completed または cancelled を指定してください。"
	case "start day is required":
		return "開始日は必須です。"
	case "end day is required":
		return "終了日は必須です。"
	case "end day must not be before start day":
		return "終了日は開始日以降で指定してください。"
	case "reason is required":
		return "理由は必須です。"
	default:
		if strings.HasPrefix(message, "attendees are not available:") {
			return "招待できない参加者が含まれています: " + strings.TrimSpace(strings.TrimPrefix(message, "attendees are not available:"))
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type conflictResponse struct {
	ErrorCode string              `json:"error_code"`
	Message   string              `json:"message"`
	Existing  attendanceRecordDTO `json:"existing"`
}
