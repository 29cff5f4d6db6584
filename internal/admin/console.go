// Package admin implements the admin console: the results dashboard,
// portal settings and question bank management.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/db"
	"github.com/mind-engage/mindengage-exam/internal/exam"
	"github.com/mind-engage/mindengage-exam/internal/settings"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

// UserLister is satisfied by *auth.Service.
type UserLister interface {
	Users(ctx context.Context) ([]auth.User, error)
}

type Console struct {
	db       db.Querier
	users    UserLister
	exams    exam.Store
	settings *settings.Service
	events   *syncx.EventRepo
	log      *zap.Logger
}

func NewConsole(dbh db.Querier, users UserLister, exams exam.Store, st *settings.Service, events *syncx.EventRepo, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{db: dbh, users: users, exams: exams, settings: st, events: events, log: log}
}

type UserSummary struct {
	User           auth.User       `json:"user"`
	TotalQuestions int             `json:"total_questions"`
	CorrectAnswers int             `json:"correct_answers"`
	Score          float64         `json:"score"`
	PointsEarned   int             `json:"points_earned"`
	PendingReview  int             `json:"pending_review"`
	Responses      []exam.Response `json:"responses"`
}

type Dashboard struct {
	Users         []UserSummary   `json:"user_data"`
	Questions     []exam.Question `json:"questions"`
	BlockPassword string          `json:"block_password"`
	ExamDuration  int             `json:"exam_duration"`
}

// ScorePercent is correct/total*100, or 0 when nothing was answered.
func ScorePercent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

func (c *Console) Dashboard(ctx context.Context, sess auth.Session) (Dashboard, error) {
	if err := sess.RequireAdmin(); err != nil {
		return Dashboard{}, err
	}
	users, err := c.users.Users(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	all, err := c.exams.ListResponses(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	byUser := make(map[int64][]exam.Response, len(users))
	for _, r := range all {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	out := Dashboard{Users: make([]UserSummary, 0, len(users))}
	for _, u := range users {
		rs := byUser[u.ID]
		if rs == nil {
			rs = []exam.Response{}
		}
		res := exam.Summarize(rs)
		out.Users = append(out.Users, UserSummary{
			User:           u,
			TotalQuestions: res.TotalQuestions,
			CorrectAnswers: res.Correct,
			Score:          ScorePercent(res.Correct, res.TotalQuestions),
			PointsEarned:   res.PointsEarned,
			PendingReview:  res.PendingReview,
			Responses:      rs,
		})
	}
	if out.Questions, err = c.exams.ListQuestions(ctx); err != nil {
		return Dashboard{}, err
	}
	if out.BlockPassword, err = c.settings.BlockPassword(ctx); err != nil {
		return Dashboard{}, err
	}
	if out.ExamDuration, err = c.settings.ExamDuration(ctx); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}

func (c *Console) SetBlockPassword(ctx context.Context, sess auth.Session, value string) error {
	if err := sess.RequireAdmin(); err != nil {
		return err
	}
	return c.settings.SetBlockPassword(ctx, value)
}

// SetExamDuration accepts the raw form value; see settings.ParseDuration.
func (c *Console) SetExamDuration(ctx context.Context, sess auth.Session, raw string) (int, error) {
	if err := sess.RequireAdmin(); err != nil {
		return 0, err
	}
	return c.settings.SetExamDuration(ctx, raw)
}

// QuestionInput is the raw create-question form.
type QuestionInput struct {
	Type              string
	Text              string
	OptionA           string
	OptionB           string
	OptionC           string
	OptionD           string
	CorrectAnswer     string
	CorrectAnswerText string
	Points            string
}

// ParsePoints returns 1 for absent, unparsable or non-positive input.
func ParsePoints(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Build maps the form onto a Question. MCQ fields are taken as given,
// empty options and key included.
func (in QuestionInput) Build() (exam.Question, error) {
	typ := exam.QuestionType(in.Type)
	if !typ.Valid() {
		return exam.Question{}, &settings.ValidationError{Msg: "Invalid question type!"}
	}
	q := exam.Question{Type: typ, Text: in.Text, Points: ParsePoints(in.Points)}
	if typ == exam.TypeMCQ {
		q.OptionA, q.OptionB, q.OptionC, q.OptionD = in.OptionA, in.OptionB, in.OptionC, in.OptionD
		q.CorrectAnswer = in.CorrectAnswer
	} else {
		q.CorrectAnswerText = in.CorrectAnswerText
	}
	return q, nil
}

func (c *Console) CreateQuestion(ctx context.Context, sess auth.Session, in QuestionInput) (exam.Question, error) {
	if err := sess.RequireAdmin(); err != nil {
		return exam.Question{}, err
	}
	q, err := in.Build()
	if err != nil {
		return exam.Question{}, err
	}
	err = c.exams.Tx(ctx, func(st exam.Store, tx db.Querier) error {
		created, err := st.CreateQuestion(ctx, q)
		if err != nil {
			return err
		}
		q = created
		return c.events.Append(ctx, tx, syncx.TypeQuestionCreated, fmt.Sprint(q.ID),
			map[string]any{"question_id": q.ID, "type": q.Type, "points": q.Points})
	})
	if err != nil {
		return exam.Question{}, err
	}
	c.log.Info("question created", zap.Int64("question_id", q.ID), zap.String("type", string(q.Type)))
	return q, nil
}

// DeleteQuestion removes the question and every response to it. Scores
// shown on the dashboard drop accordingly.
func (c *Console) DeleteQuestion(ctx context.Context, sess auth.Session, id int64) error {
	if err := sess.RequireAdmin(); err != nil {
		return err
	}
	err := c.exams.Tx(ctx, func(st exam.Store, tx db.Querier) error {
		if err := st.DeleteQuestion(ctx, id); err != nil {
			return err
		}
		return c.events.Append(ctx, tx, syncx.TypeQuestionDeleted, fmt.Sprint(id),
			map[string]any{"question_id": id})
	})
	if err != nil {
		return err
	}
	c.log.Info("question deleted", zap.Int64("question_id", id))
	return nil
}

// Events returns audit events of typ (all types when empty), oldest first.
func (c *Console) Events(ctx context.Context, sess auth.Session, typ string, limit int) ([]syncx.Event, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}
	return c.events.List(ctx, c.db, typ, limit)
}
