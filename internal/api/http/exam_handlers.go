package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/exam"
	"github.com/mind-engage/mindengage-exam/internal/metrics"
	"github.com/mind-engage/mindengage-exam/internal/settings"
)

const answerFieldPrefix = "question_"

func ExamPageHandler(engine *exam.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := engine.Start(r.Context(), auth.SessionFromContext(r.Context()))
		if errors.Is(err, exam.ErrAlreadyCompleted) {
			redirectWithFlash(w, r, "/exam_completed", "info", "You have already completed the exam")
			return
		}
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		renderPage(w, r, "exam", v)
	}
}

// parseAnswers collects question_<id> form fields. Unknown or malformed
// field names are ignored.
func parseAnswers(r *http.Request) (map[int64]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	out := make(map[int64]string)
	for k, vs := range r.PostForm {
		if !strings.HasPrefix(k, answerFieldPrefix) || len(vs) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(k, answerFieldPrefix), 10, 64)
		if err != nil {
			continue
		}
		out[id] = vs[0]
	}
	return out, nil
}

func SubmitExamHandler(engine *exam.Engine, m *metrics.Metrics, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, err := parseAnswers(r)
		if err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		_, err = engine.Submit(r.Context(), auth.SessionFromContext(r.Context()), answers)
		if errors.Is(err, exam.ErrAlreadyCompleted) {
			redirectWithFlash(w, r, "/exam_completed", "info", "You have already completed the exam")
			return
		}
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		m.ObserveSubmission()
		redirectWithFlash(w, r, "/exam_completed", "success", "Exam submitted successfully!")
	}
}

func ExamCompletedHandler(engine *exam.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := engine.Result(r.Context(), auth.SessionFromContext(r.Context()))
		if errors.Is(err, exam.ErrNoResult) {
			http.Redirect(w, r, "/exam", http.StatusSeeOther)
			return
		}
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		renderPage(w, r, "exam_completed", res)
	}
}

// VerifyBlockPasswordHandler answers {"success":bool}. The stored value is
// never echoed.
func VerifyBlockPasswordHandler(st *settings.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "bad json"})
			return
		}
		ok, err := st.VerifyBlockPassword(r.Context(), req.Password)
		if err != nil {
			log.Error("verify block password", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
			return
		}
		if !ok {
			respondJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Incorrect password"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
