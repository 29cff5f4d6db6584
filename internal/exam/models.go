package exam

import (
	"time"

	"github.com/mind-engage/mindengage-exam/internal/grading"
)

type QuestionType string

const (
	TypeMCQ         QuestionType = grading.TypeMCQ
	TypeShortAnswer QuestionType = grading.TypeShortAnswer
	TypeParagraph   QuestionType = grading.TypeParagraph
)

// Valid reports whether t is one of the three known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMCQ, TypeShortAnswer, TypeParagraph:
		return true
	}
	return false
}

type Question struct {
	ID   int64        `json:"id"`
	Type QuestionType `json:"question_type"`
	Text string       `json:"question_text"`

	// MCQ only
	OptionA       string `json:"option_a,omitempty"`
	OptionB       string `json:"option_b,omitempty"`
	OptionC       string `json:"option_c,omitempty"`
	OptionD       string `json:"option_d,omitempty"`
	CorrectAnswer string `json:"correct_answer,omitempty"` // A|B|C|D

	// SHORT_ANSWER / PARAGRAPH reference answer, for manual review only
	CorrectAnswerText string `json:"correct_answer_text,omitempty"`

	Points int `json:"points"`
}

// StudentView strips answer keys before a question is shown to a student.
func (q Question) StudentView() Question {
	q.CorrectAnswer = ""
	q.CorrectAnswerText = ""
	return q
}

type Response struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	QuestionID   int64        `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`
	Answer       string       `json:"user_answer,omitempty"`      // MCQ letter
	AnswerText   string       `json:"user_answer_text,omitempty"` // free text, verbatim
	IsCorrect    bool         `json:"is_correct"`
	PointsEarned int          `json:"points_earned"`
	SubmittedAt  time.Time    `json:"submitted_at"`
}

// View is what a student receives when the exam starts.
type View struct {
	Questions       []Question `json:"questions"`
	DurationMinutes int        `json:"duration_minutes"`
}

// Result summarises one student's submission.
type Result struct {
	TotalQuestions int        `json:"total_questions"`
	Correct        int        `json:"correct_answers"`
	PointsEarned   int        `json:"points_earned"`
	PendingReview  int        `json:"pending_review"` // text answers awaiting manual grading
	Responses      []Response `json:"responses,omitempty"`
}

// Summarize folds responses into a Result. Responses to deleted questions
// are already gone through the cascade.
func Summarize(responses []Response) Result {
	r := Result{TotalQuestions: len(responses), Responses: responses}
	for _, resp := range responses {
		if resp.IsCorrect {
			r.Correct++
		}
		r.PointsEarned += resp.PointsEarned
		if resp.QuestionType != TypeMCQ {
			r.PendingReview++
		}
	}
	return r
}
