package exam

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mind-engage/mindengage-exam/internal/db"
)

//go:embed seed_questions.json
var seedQuestionsJSON []byte

// DefaultQuestions is the starter bank loaded by Seed.
func DefaultQuestions() ([]Question, error) {
	var qs []Question
	if err := json.Unmarshal(seedQuestionsJSON, &qs); err != nil {
		return nil, fmt.Errorf("parse seed questions: %w", err)
	}
	return qs, nil
}

// Seed inserts qs only when the bank is empty. It reports how many
// questions were inserted.
func Seed(ctx context.Context, store Store, qs []Question) (int, error) {
	n, err := store.CountQuestions(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	err = store.Tx(ctx, func(st Store, _ db.Querier) error {
		for _, q := range qs {
			if q.Points < 1 {
				q.Points = 1
			}
			if _, err := st.CreateQuestion(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(qs), nil
}
