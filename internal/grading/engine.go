package grading

import (
	"context"
)

// Question types known to the grader.
const (
	TypeMCQ         = "MCQ"
	TypeShortAnswer = "SHORT_ANSWER"
	TypeParagraph   = "PARAGRAPH"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	Type      string
	Points    int
	AnswerKey string // MCQ correct letter; unused for text types
}

// Result is the outcome of grading a single question response.
type Result struct {
	Correct     bool
	AutoPoints  int  // points awarded automatically
	MaxPoints   int  // the question's max points
	NeedsManual bool // true if a human has to review the answer
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response string) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points, NeedsManual: true}, nil
	}
	return s.Grade(ctx, q, response)
}

type Option func(map[string]Strategy)

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(typ string, s Strategy) Option {
	return func(m map[string]Strategy) { m[typ] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	m := map[string]Strategy{
		TypeMCQ:         mcqStrategy{},
		TypeShortAnswer: manualStrategy{},
		TypeParagraph:   manualStrategy{},
	}
	for _, o := range opts {
		o(m)
	}
	return &defaultGrader{strategies: m}
}

// --- Strategies ---

// mcqStrategy compares the chosen letter with the stored key exactly.
// An empty choice is wrong, never an error.
type mcqStrategy struct{}

func (mcqStrategy) Grade(_ context.Context, q Q, response string) (Result, error) {
	res := Result{MaxPoints: q.Points}
	if response != "" && response == q.AnswerKey {
		res.Correct = true
		res.AutoPoints = q.Points
	}
	return res, nil
}

// manualStrategy never awards points; text answers wait for review.
type manualStrategy struct{}

func (manualStrategy) Grade(_ context.Context, q Q, _ string) (Result, error) {
	return Result{MaxPoints: q.Points, NeedsManual: true}, nil
}
