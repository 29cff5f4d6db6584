package exam

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/db/dbtest"
	"github.com/mind-engage/mindengage-exam/internal/grading"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

type fixedDuration int

func (d fixedDuration) ExamDuration(context.Context) (int, error) { return int(d), nil }

type fixture struct {
	db     *sql.DB
	store  *SQLStore
	engine *Engine
	events *syncx.EventRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dbh := dbtest.Open(t)
	st := NewSQLStore(dbh)
	ev := syncx.NewEventRepo("")
	return fixture{db: dbh, store: st, events: ev, engine: NewEngine(st, fixedDuration(45), nil, ev, nil)}
}

func (f fixture) student(t *testing.T, name string) auth.Session {
	t.Helper()
	u, err := auth.UserStore{}.Create(context.Background(), f.db, name, "hash")
	if err != nil {
		t.Fatal(err)
	}
	return auth.StudentSession(u.ID, u.Username)
}

func (f fixture) question(t *testing.T, q Question) Question {
	t.Helper()
	if q.Points == 0 {
		q.Points = 1
	}
	out, err := f.store.CreateQuestion(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func mcq(text, key string) Question {
	return Question{Type: TypeMCQ, Text: text, OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: key}
}

func TestStartHidesAnswerKeys(t *testing.T) {
	f := newFixture(t)
	f.question(t, mcq("q1", "B"))
	f.question(t, Question{Type: TypeParagraph, Text: "essay", CorrectAnswerText: "ref"})
	s := f.student(t, "alice")

	v, err := f.engine.Start(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if v.DurationMinutes != 45 {
		t.Fatalf("duration: %d", v.DurationMinutes)
	}
	if len(v.Questions) != 2 {
		t.Fatalf("questions: %d", len(v.Questions))
	}
	for _, q := range v.Questions {
		if q.CorrectAnswer != "" || q.CorrectAnswerText != "" {
			t.Fatalf("answer key leaked: %+v", q)
		}
	}
}

func TestStartRequiresStudent(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Start(context.Background(), auth.Anonymous()); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("anonymous: %v", err)
	}
	if _, err := f.engine.Start(context.Background(), auth.AdminSession()); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("admin: %v", err)
	}
}

func TestSubmitGradesMixedExam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q1 := f.question(t, mcq("q1", "B"))
	q2 := f.question(t, mcq("q2", "C"))
	q3 := f.question(t, Question{Type: TypeShortAnswer, Text: "short", CorrectAnswerText: "ref", Points: 3})
	q4 := f.question(t, Question{Type: TypeParagraph, Text: "long"})
	s := f.student(t, "alice")

	res, err := f.engine.Submit(ctx, s, map[int64]string{
		q1.ID: "B",
		q2.ID: "A",
		q3.ID: "ref",
		q4.ID: "  some essay  ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalQuestions != 4 || res.Correct != 1 || res.PointsEarned != 1 || res.PendingReview != 2 {
		t.Fatalf("result: %+v", res)
	}

	got, err := f.engine.Result(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalQuestions != 4 || got.Correct != 1 {
		t.Fatalf("stored result: %+v", got)
	}
	for _, r := range got.Responses {
		if r.QuestionID == q4.ID && r.AnswerText != "  some essay  " {
			t.Fatalf("paragraph answer not stored verbatim: %q", r.AnswerText)
		}
		if r.QuestionID == q3.ID && (r.IsCorrect || r.PointsEarned != 0) {
			t.Fatalf("short answer auto-graded: %+v", r)
		}
	}

	evs, err := f.events.List(ctx, f.db, syncx.TypeExamSubmitted, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 {
		t.Fatalf("events: %d", len(evs))
	}
}

func TestSubmitBlankAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.question(t, mcq("q1", "A"))
	f.question(t, Question{Type: TypeShortAnswer, Text: "short"})
	s := f.student(t, "bob")

	res, err := f.engine.Submit(ctx, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalQuestions != 2 || res.Correct != 0 || res.PointsEarned != 0 {
		t.Fatalf("blank result: %+v", res)
	}
}

func TestSubmitTwiceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.question(t, mcq("q1", "A"))
	s := f.student(t, "carol")

	if _, err := f.engine.Submit(ctx, s, map[int64]string{q.ID: "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Submit(ctx, s, map[int64]string{q.ID: "B"}); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("second submit: %v", err)
	}
	if _, err := f.engine.Start(ctx, s); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("start after submit: %v", err)
	}
	rs, err := f.store.ResponsesByUser(ctx, s.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 || rs[0].Answer != "A" {
		t.Fatalf("responses changed: %+v", rs)
	}
}

// failSecond grades like an MCQ key match until its second call, which errors.
type failSecond struct{ calls int }

var errGrader = errors.New("grader unavailable")

func (f *failSecond) Grade(_ context.Context, q grading.Q, response string) (grading.Result, error) {
	f.calls++
	if f.calls == 2 {
		return grading.Result{}, errGrader
	}
	ok := response != "" && response == q.AnswerKey
	res := grading.Result{Correct: ok, MaxPoints: q.Points}
	if ok {
		res.AutoPoints = q.Points
	}
	return res, nil
}

func TestSubmitIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q1 := f.question(t, mcq("q1", "A"))
	q2 := f.question(t, mcq("q2", "B"))
	q3 := f.question(t, mcq("q3", "C"))
	s := f.student(t, "gina")

	g := grading.NewDefaultGrader(grading.WithStrategy(grading.TypeMCQ, &failSecond{}))
	engine := NewEngine(f.store, fixedDuration(45), g, f.events, nil)

	answers := map[int64]string{q1.ID: "A", q2.ID: "B", q3.ID: "C"}
	if _, err := engine.Submit(ctx, s, answers); !errors.Is(err, errGrader) {
		t.Fatalf("submit: %v", err)
	}
	rs, err := f.store.ResponsesByUser(ctx, s.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 0 {
		t.Fatalf("partial submission stored: %+v", rs)
	}
	evs, err := f.events.List(ctx, f.db, syncx.TypeExamSubmitted, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 0 {
		t.Fatalf("events: %d", len(evs))
	}

	// The student can still take the exam.
	if _, err := engine.Start(ctx, s); err != nil {
		t.Fatalf("start after failed submit: %v", err)
	}
	if _, err := f.engine.Submit(ctx, s, answers); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestResultBeforeSubmit(t *testing.T) {
	f := newFixture(t)
	s := f.student(t, "dave")
	if _, err := f.engine.Result(context.Background(), s); !errors.Is(err, ErrNoResult) {
		t.Fatalf("want ErrNoResult, got %v", err)
	}
}

func TestDeleteQuestionCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q1 := f.question(t, mcq("q1", "A"))
	q2 := f.question(t, mcq("q2", "B"))
	s := f.student(t, "erin")
	if _, err := f.engine.Submit(ctx, s, map[int64]string{q1.ID: "A", q2.ID: "B"}); err != nil {
		t.Fatal(err)
	}

	if err := f.store.DeleteQuestion(ctx, q1.ID); err != nil {
		t.Fatal(err)
	}
	res, err := f.engine.Result(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalQuestions != 1 || res.Correct != 1 {
		t.Fatalf("after delete: %+v", res)
	}
	if err := f.store.DeleteQuestion(ctx, q1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	qs, err := DefaultQuestions()
	if err != nil {
		t.Fatal(err)
	}
	n, err := Seed(ctx, f.store, qs)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(qs) {
		t.Fatalf("seeded %d of %d", n, len(qs))
	}
	if n, _ := Seed(ctx, f.store, qs); n != 0 {
		t.Fatalf("second seed inserted %d", n)
	}
	count, _ := f.store.CountQuestions(ctx)
	if count != len(qs) {
		t.Fatalf("bank size %d", count)
	}
}

func TestSummarize(t *testing.T) {
	res := Summarize([]Response{
		{QuestionType: TypeMCQ, IsCorrect: true, PointsEarned: 2},
		{QuestionType: TypeMCQ},
		{QuestionType: TypeParagraph},
	})
	if res.TotalQuestions != 3 || res.Correct != 1 || res.PointsEarned != 2 || res.PendingReview != 1 {
		t.Fatalf("%+v", res)
	}
}
