package auth

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-exam/internal/db"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrDuplicateUsername  = errors.New("auth: username already exists")
	ErrValidation         = errors.New("auth: username and password are required")
)

// AdminCredential is the externally configured admin identity.
// An empty Username or PassHash disables admin login.
type AdminCredential struct {
	Username string
	PassHash string // bcrypt
}

func (c AdminCredential) enabled() bool { return c.Username != "" && c.PassHash != "" }

type Service struct {
	db     *sql.DB
	users  UserStore
	events *syncx.EventRepo
	admin  AdminCredential
	cost   int
	log    *zap.Logger
}

type ServiceOption func(*Service)

// WithBcryptCost overrides the hashing cost (tests use bcrypt.MinCost).
func WithBcryptCost(c int) ServiceOption { return func(s *Service) { s.cost = c } }

func NewService(dbh *sql.DB, events *syncx.EventRepo, admin AdminCredential, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{db: dbh, events: events, admin: admin, cost: 12, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login returns an admin session for the configured admin pair, otherwise a
// student session for a matching user.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	if s.isAdmin(username, password) {
		return AdminSession(), nil
	}
	u, err := s.users.ByUsername(ctx, s.db, username)
	if errors.Is(err, errUserNotFound) {
		return Anonymous(), ErrInvalidCredentials
	}
	if err != nil {
		return Anonymous(), err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Anonymous(), ErrInvalidCredentials
	}
	return StudentSession(u.ID, u.Username), nil
}

func (s *Service) isAdmin(username, password string) bool {
	if !s.admin.enabled() {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.admin.PassHash), []byte(password)) == nil
}

// Register creates a student account.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return User{}, ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	var u User
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.users.ByUsername(ctx, tx, username); err == nil {
			return ErrDuplicateUsername
		} else if !errors.Is(err, errUserNotFound) {
			return err
		}
		created, err := s.users.Create(ctx, tx, username, string(hash))
		if err != nil {
			return err
		}
		u = created
		return s.events.Append(ctx, tx, syncx.TypeUserRegistered, fmt.Sprint(u.ID),
			map[string]any{"user_id": u.ID, "username": u.Username})
	})
	if err != nil {
		return User{}, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Users lists every registered user.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	return s.users.List(ctx, s.db)
}
