// Package settings stores the portal's key/value configuration rows:
// the exam duration and the lockdown password.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/db"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

const (
	KeyExamDuration  = "exam_duration"
	KeyBlockPassword = "block_password"

	DefaultDurationMinutes = 60
	DefaultBlockPassword   = "exam2024"

	MinDurationMinutes = 1
	MaxDurationMinutes = 300
)

// ValidationError carries a message meant for the user.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

var errNotSet = errors.New("setting not set")

// Store reads and upserts admin_settings rows.
type Store struct{}

func (Store) Get(ctx context.Context, q db.Querier, key string) (string, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT setting_value FROM admin_settings WHERE setting_key=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errNotSet
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, nil
}

func (Store) Set(ctx context.Context, q db.Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO admin_settings (setting_key, setting_value) VALUES ($1,$2)
		 ON CONFLICT (setting_key) DO UPDATE SET setting_value=EXCLUDED.setting_value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

type Service struct {
	db     *sql.DB
	store  Store
	events *syncx.EventRepo
	log    *zap.Logger
}

func NewService(dbh *sql.DB, events *syncx.EventRepo, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: dbh, events: events, log: log}
}

// ExamDuration returns the configured duration in minutes. Missing,
// unparsable or non-positive values fall back to the default.
func (s *Service) ExamDuration(ctx context.Context) (int, error) {
	v, err := s.store.Get(ctx, s.db, KeyExamDuration)
	if errors.Is(err, errNotSet) {
		return DefaultDurationMinutes, nil
	}
	if err != nil {
		return 0, err
	}
	n, perr := strconv.Atoi(strings.TrimSpace(v))
	if perr != nil || n < 1 {
		return DefaultDurationMinutes, nil
	}
	return n, nil
}

// ParseDuration validates admin input for the exam duration.
func ParseDuration(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Msg: "Invalid duration value! Please enter a valid number."}
	}
	if n < MinDurationMinutes || n > MaxDurationMinutes {
		return 0, &ValidationError{Msg: "Duration must be between 1 and 300 minutes!"}
	}
	return n, nil
}

// SetExamDuration validates raw and upserts it. Invalid input leaves the
// stored value untouched.
func (s *Service) SetExamDuration(ctx context.Context, raw string) (int, error) {
	n, err := ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.store.Set(ctx, tx, KeyExamDuration, strconv.Itoa(n)); err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.TypeSettingChanged, KeyExamDuration,
			map[string]any{"key": KeyExamDuration, "value": n})
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("exam duration updated", zap.Int("minutes", n))
	return n, nil
}

// BlockPassword returns the lockdown password, or the default when unset.
func (s *Service) BlockPassword(ctx context.Context) (string, error) {
	v, err := s.store.Get(ctx, s.db, KeyBlockPassword)
	if errors.Is(err, errNotSet) {
		return DefaultBlockPassword, nil
	}
	return v, err
}

// SetBlockPassword upserts the lockdown password. The value itself is
// never written to the event log.
func (s *Service) SetBlockPassword(ctx context.Context, value string) error {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.store.Set(ctx, tx, KeyBlockPassword, value); err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.TypeSettingChanged, KeyBlockPassword,
			map[string]any{"key": KeyBlockPassword})
	})
	if err != nil {
		return err
	}
	s.log.Info("block password updated")
	return nil
}

// EnsureBlockPassword stores the default lockdown password if none is set.
func (s *Service) EnsureBlockPassword(ctx context.Context) (bool, error) {
	_, err := s.store.Get(ctx, s.db, KeyBlockPassword)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, errNotSet) {
		return false, err
	}
	return true, s.store.Set(ctx, s.db, KeyBlockPassword, DefaultBlockPassword)
}

// VerifyBlockPassword compares candidate with the current lockdown
// password by plain equality.
func (s *Service) VerifyBlockPassword(ctx context.Context, candidate string) (bool, error) {
	want, err := s.BlockPassword(ctx)
	if err != nil {
		return false, err
	}
	return candidate == want, nil
}
