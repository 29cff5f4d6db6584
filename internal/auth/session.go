package auth

import (
	"context"
	"errors"
)

// Kind discriminates who is behind a request.
type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindStudent   Kind = "student"
	KindAdmin     Kind = "admin"
)

// Session is passed explicitly into every protected operation.
// Student sessions carry a user id; admin sessions never do.
type Session struct {
	Kind     Kind
	UserID   int64
	Username string
}

func Anonymous() Session { return Session{Kind: KindAnonymous} }

func StudentSession(userID int64, username string) Session {
	return Session{Kind: KindStudent, UserID: userID, Username: username}
}

func AdminSession() Session { return Session{Kind: KindAdmin} }

func (s Session) IsStudent() bool { return s.Kind == KindStudent && s.UserID > 0 }
func (s Session) IsAdmin() bool   { return s.Kind == KindAdmin }

var (
	ErrUnauthenticated = errors.New("auth: not authenticated")
	ErrForbidden       = errors.New("auth: wrong session kind")
)

// RequireStudent returns ErrUnauthenticated for anonymous callers and
// ErrForbidden for admins.
func (s Session) RequireStudent() error {
	switch {
	case s.IsStudent():
		return nil
	case s.IsAdmin():
		return ErrForbidden
	default:
		return ErrUnauthenticated
	}
}

// RequireAdmin mirrors RequireStudent for the admin console.
func (s Session) RequireAdmin() error {
	switch {
	case s.IsAdmin():
		return nil
	case s.IsStudent():
		return ErrForbidden
	default:
		return ErrUnauthenticated
	}
}

// ---- session in context ----

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFromContext(ctx context.Context) Session {
	if v, ok := ctx.Value(ctxKey{}).(Session); ok {
		return v
	}
	return Anonymous()
}
