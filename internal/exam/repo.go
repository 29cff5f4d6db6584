package exam

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-exam/internal/db"
)

var (
	ErrNotFound         = errors.New("question not found")
	ErrAlreadyCompleted = errors.New("exam already completed")
	ErrNoResult         = errors.New("no submission on record")
)

type Store interface {
	ListQuestions(ctx context.Context) ([]Question, error)
	CountQuestions(ctx context.Context) (int, error)
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	// DeleteQuestion removes the question and every response to it.
	DeleteQuestion(ctx context.Context, id int64) error

	HasResponses(ctx context.Context, userID int64) (bool, error)
	InsertResponses(ctx context.Context, rs []Response) error
	ResponsesByUser(ctx context.Context, userID int64) ([]Response, error)
	ListResponses(ctx context.Context) ([]Response, error)

	// Tx runs fn against a Store bound to one transaction. q is the same
	// transaction, for writes outside this package (event log).
	Tx(ctx context.Context, fn func(st Store, q db.Querier) error) error
}
