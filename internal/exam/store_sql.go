package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-exam/internal/db"
)

type SQLStore struct {
	root *sql.DB
	q    db.Querier
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{root: dbh, q: dbh}
}

func (s *SQLStore) Tx(ctx context.Context, fn func(Store, db.Querier) error) error {
	if s.root == nil {
		return errors.New("exam: nested transaction")
	}
	return db.WithTx(ctx, s.root, func(tx *sql.Tx) error {
		return fn(&SQLStore{q: tx}, tx)
	})
}

const questionCols = `id, question_type, question_text, option_a, option_b, option_c, option_d,
	correct_answer, correct_answer_text, points`

func scanQuestion(sc interface{ Scan(...any) error }) (Question, error) {
	var (
		q                   Question
		typ                 string
		a, b, c, d, key, kt sql.NullString
	)
	if err := sc.Scan(&q.ID, &typ, &q.Text, &a, &b, &c, &d, &key, &kt, &q.Points); err != nil {
		return Question{}, err
	}
	q.Type = QuestionType(typ)
	q.OptionA, q.OptionB, q.OptionC, q.OptionD = a.String, b.String, c.String, d.String
	q.CorrectAnswer, q.CorrectAnswerText = key.String, kt.String
	return q, nil
}

// ListQuestions returns the bank in id order.
func (s *SQLStore) ListQuestions(ctx context.Context) ([]Question, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+questionCols+` FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	var opts [4]sql.NullString
	var key, keyText sql.NullString
	if q.Type == TypeMCQ {
		opts = [4]sql.NullString{nullIfEmpty(q.OptionA), nullIfEmpty(q.OptionB), nullIfEmpty(q.OptionC), nullIfEmpty(q.OptionD)}
		key = nullIfEmpty(q.CorrectAnswer)
	} else {
		keyText = sql.NullString{String: q.CorrectAnswerText, Valid: true}
	}
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO questions (question_type, question_text, option_a, option_b, option_c, option_d,
			correct_answer, correct_answer_text, points)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		string(q.Type), q.Text, opts[0], opts[1], opts[2], opts[3], key, keyText, q.Points).Scan(&q.ID)
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// DeleteQuestion deletes responses first, then the question, so the
// cascade holds even on connections without foreign key enforcement.
func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	var exists int
	err := s.q.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE id=$1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get question: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM exam_responses WHERE question_id=$1`, id); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *SQLStore) HasResponses(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, `SELECT 1 FROM exam_responses WHERE user_id=$1 LIMIT 1`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has responses: %w", err)
	}
	return true, nil
}

// InsertResponses writes rs in order. Callers wrap it in Tx so a
// submission lands completely or not at all.
func (s *SQLStore) InsertResponses(ctx context.Context, rs []Response) error {
	for _, r := range rs {
		var letter, text sql.NullString
		if r.QuestionType == TypeMCQ {
			letter = nullIfEmpty(r.Answer)
		} else {
			text = sql.NullString{String: r.AnswerText, Valid: true}
		}
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO exam_responses (user_id, question_id, user_answer, user_answer_text, is_correct, points_earned, submitted_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			r.UserID, r.QuestionID, letter, text, r.IsCorrect, r.PointsEarned, r.SubmittedAt.Unix())
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("insert response: %w", err)
		}
	}
	return nil
}

const responseCols = `r.id, r.user_id, r.question_id, q.question_type, r.user_answer, r.user_answer_text,
	r.is_correct, r.points_earned, r.submitted_at`

const responseFrom = ` FROM exam_responses r JOIN questions q ON q.id = r.question_id`

func (s *SQLStore) queryResponses(ctx context.Context, query string, args ...any) ([]Response, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	out := []Response{}
	for rows.Next() {
		var (
			r            Response
			typ          string
			letter, text sql.NullString
			submitted    int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.QuestionID, &typ, &letter, &text, &r.IsCorrect, &r.PointsEarned, &submitted); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.QuestionType = QuestionType(typ)
		r.Answer, r.AnswerText = letter.String, text.String
		r.SubmittedAt = time.Unix(submitted, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ResponsesByUser(ctx context.Context, userID int64) ([]Response, error) {
	return s.queryResponses(ctx, `SELECT `+responseCols+responseFrom+` WHERE r.user_id=$1 ORDER BY r.id`, userID)
}

func (s *SQLStore) ListResponses(ctx context.Context) ([]Response, error) {
	return s.queryResponses(ctx, `SELECT `+responseCols+responseFrom+` ORDER BY r.user_id, r.id`)
}
