package exam

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/db"
	"github.com/mind-engage/mindengage-exam/internal/grading"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

// DurationSource yields the current exam duration in minutes.
type DurationSource interface {
	ExamDuration(ctx context.Context) (int, error)
}

// Engine runs the student side of the exam: start, submit, result.
//
// The timer is advisory. Start reports the duration but Submit accepts
// answers regardless of elapsed time; whether the deadline should be
// enforced server-side is left to the integrator.
type Engine struct {
	store    Store
	duration DurationSource
	grader   grading.Grader
	events   *syncx.EventRepo
	log      *zap.Logger
	now      func() time.Time
}

func NewEngine(store Store, duration DurationSource, grader grading.Grader, events *syncx.EventRepo, log *zap.Logger) *Engine {
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, duration: duration, grader: grader, events: events, log: log, now: time.Now}
}

// Start returns the question bank (answer keys stripped) and the duration.
// A student who already has responses gets ErrAlreadyCompleted.
func (e *Engine) Start(ctx context.Context, sess auth.Session) (View, error) {
	if err := sess.RequireStudent(); err != nil {
		return View{}, err
	}
	done, err := e.store.HasResponses(ctx, sess.UserID)
	if err != nil {
		return View{}, err
	}
	if done {
		return View{}, ErrAlreadyCompleted
	}
	qs, err := e.store.ListQuestions(ctx)
	if err != nil {
		return View{}, err
	}
	for i := range qs {
		qs[i] = qs[i].StudentView()
	}
	minutes, err := e.duration.ExamDuration(ctx)
	if err != nil {
		return View{}, err
	}
	return View{Questions: qs, DurationMinutes: minutes}, nil
}

// Submit grades answers (question id -> choice letter or free text) against
// every question currently in the bank and stores one response per
// question in a single transaction. A second submission by the same
// student fails with ErrAlreadyCompleted.
func (e *Engine) Submit(ctx context.Context, sess auth.Session, answers map[int64]string) (Result, error) {
	if err := sess.RequireStudent(); err != nil {
		return Result{}, err
	}
	var responses []Response
	err := e.store.Tx(ctx, func(st Store, q db.Querier) error {
		done, err := st.HasResponses(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyCompleted
		}
		qs, err := st.ListQuestions(ctx)
		if err != nil {
			return err
		}
		responses, err = e.grade(ctx, sess.UserID, qs, answers)
		if err != nil {
			return err
		}
		if err := st.InsertResponses(ctx, responses); err != nil {
			return err
		}
		return e.events.Append(ctx, q, syncx.TypeExamSubmitted, fmt.Sprint(sess.UserID),
			map[string]any{"user_id": sess.UserID, "responses": len(responses)})
	})
	if err != nil {
		return Result{}, err
	}
	res := Summarize(responses)
	e.log.Info("exam submitted",
		zap.Int64("user_id", sess.UserID),
		zap.Int("questions", res.TotalQuestions),
		zap.Int("correct", res.Correct),
		zap.Int("points", res.PointsEarned))
	return res, nil
}

func (e *Engine) grade(ctx context.Context, userID int64, qs []Question, answers map[int64]string) ([]Response, error) {
	now := e.now().UTC()
	out := make([]Response, 0, len(qs))
	for _, q := range qs {
		given := answers[q.ID]
		r := Response{
			UserID:       userID,
			QuestionID:   q.ID,
			QuestionType: q.Type,
			SubmittedAt:  now,
		}
		if q.Type == TypeMCQ {
			r.Answer = given
		} else {
			r.AnswerText = given
		}
		g, err := e.grader.Grade(ctx, grading.Q{Type: string(q.Type), Points: q.Points, AnswerKey: q.CorrectAnswer}, given)
		if err != nil {
			return nil, fmt.Errorf("grade question %d: %w", q.ID, err)
		}
		r.IsCorrect = g.Correct
		r.PointsEarned = g.AutoPoints
		out = append(out, r)
	}
	return out, nil
}

// Result returns the caller's submission summary, or ErrNoResult when the
// student has not submitted yet.
func (e *Engine) Result(ctx context.Context, sess auth.Session) (Result, error) {
	if err := sess.RequireStudent(); err != nil {
		return Result{}, err
	}
	rs, err := e.store.ResponsesByUser(ctx, sess.UserID)
	if err != nil {
		return Result{}, err
	}
	if len(rs) == 0 {
		return Result{}, ErrNoResult
	}
	return Summarize(rs), nil
}
