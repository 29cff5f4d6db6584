package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/admin"
	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/exam"
	"github.com/mind-engage/mindengage-exam/internal/settings"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

const dashboardPath = "/admin/dashboard"

func DashboardHandler(console *admin.Console, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := console.Dashboard(r.Context(), auth.SessionFromContext(r.Context()))
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		renderPage(w, r, "admin_dashboard", d)
	}
}

func SetBlockPasswordHandler(console *admin.Console, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := console.SetBlockPassword(r.Context(), auth.SessionFromContext(r.Context()), r.PostFormValue("block_password"))
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		redirectWithFlash(w, r, dashboardPath, "success", "Block password updated successfully!")
	}
}

func SetExamDurationHandler(console *admin.Console, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := console.SetExamDuration(r.Context(), auth.SessionFromContext(r.Context()), r.PostFormValue("exam_duration"))
		var ve *settings.ValidationError
		if errors.As(err, &ve) {
			redirectWithFlash(w, r, dashboardPath, "error", ve.Msg)
			return
		}
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		redirectWithFlash(w, r, dashboardPath, "success", "Exam duration updated successfully!")
	}
}

func CreateQuestionHandler(console *admin.Console, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := admin.QuestionInput{
			Type:              r.PostFormValue("question_type"),
			Text:              r.PostFormValue("question_text"),
			OptionA:           r.PostFormValue("option_a"),
			OptionB:           r.PostFormValue("option_b"),
			OptionC:           r.PostFormValue("option_c"),
			OptionD:           r.PostFormValue("option_d"),
			CorrectAnswer:     r.PostFormValue("correct_answer"),
			CorrectAnswerText: r.PostFormValue("correct_answer_text"),
			Points:            r.PostFormValue("points"),
		}
		q, err := console.CreateQuestion(r.Context(), auth.SessionFromContext(r.Context()), in)
		var ve *settings.ValidationError
		if errors.As(err, &ve) {
			redirectWithFlash(w, r, dashboardPath, "error", ve.Msg)
			return
		}
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		redirectWithFlash(w, r, dashboardPath, "success", fmt.Sprintf("%s question created successfully!", q.Type))
	}
}

func DeleteQuestionHandler(console *admin.Console, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		err = console.DeleteQuestion(r.Context(), auth.SessionFromContext(r.Context()), id)
		if errors.Is(err, exam.ErrNotFound) {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		redirectWithFlash(w, r, dashboardPath, "success", "Question deleted successfully!")
	}
}

// EventsHandler lists audit events; ?type= filters, ?limit= caps (default 100).
func EventsHandler(console *admin.Console, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		evs, err := console.Events(r.Context(), auth.SessionFromContext(r.Context()), r.URL.Query().Get("type"), limit)
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		renderPage(w, r, "admin_events", evs)
	}
}
