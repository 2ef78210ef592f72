package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Attendance *AttendanceHandler
	Meetings   *MeetingHandler
	Leave      *LeaveHandler

	// RequireSession guards every route except session creation.
	RequireSession func(http.Handler) http.Handler
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Use(middleware.Recoverer)

	if cfg.Auth != nil {
		r.Post("/sessions", cfg.Auth.CreateSession)
	}

	r.Group(func(r chi.Router) {
		if cfg.RequireSession != nil {
			r.Use(cfg.RequireSession)
		}

		if cfg.Auth != nil {
			r.Delete("/sessions/current", cfg.Auth.DeleteCurrentSession)
		}

		if cfg.Users != nil {
			r.Get("/users", cfg.Users.List)
			r.Post("/users", cfg.Users.Create)
		}

		if cfg.Attendance != nil {
			r.Get("/attendance", cfg.Attendance.List)
			r.Post("/attendance", cfg.Attendance.Mark)
			r.Get("/attendance/today", cfg.Attendance.ListToday)
			r.Get("/attendance/subjects", cfg.Attendance.ListSubjects)
		}

		if cfg.Meetings != nil {
			r.Get("/meetings", cfg.Meetings.List)
			r.Post("/meetings", cfg.Meetings.Create)
			r.Patch("/meetings/{meetingID}/status", cfg.Meetings.UpdateStatus)
		}

		if cfg.Leave != nil {
			r.Get("/leave-requests", cfg.Leave.List)
			r.Post("/leave-requests", cfg.Leave.Submit)
			r.Patch("/leave-requests/{requestID}/status", cfg.Leave.Decide)
		}
	})

	return r
}
