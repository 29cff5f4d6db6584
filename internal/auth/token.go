package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/mindengage-exam/internal/rbac"
)

const CookieName = "exam_session"

// TokenService signs and verifies session cookies.
type TokenService struct {
	hmac   []byte
	ttl    time.Duration
	secure bool
}

func NewTokenService(secret []byte, ttl time.Duration, secureCookie bool) *TokenService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenService{hmac: secret, ttl: ttl, secure: secureCookie}
}

type Claims struct {
	Kind     Kind   `json:"kind"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

func (a *TokenService) Issue(s Session) (string, error) {
	if s.Kind != KindStudent && s.Kind != KindAdmin {
		return "", errors.New("auth: cannot issue anonymous session")
	}
	now := time.Now()
	claims := &Claims{
		Kind:     s.Kind,
		Username: s.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mindengage-exam",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	if s.Kind == KindStudent {
		claims.Subject = strconv.FormatInt(s.UserID, 10)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *TokenService) Parse(tokenStr string) (Session, error) {
	c := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, c, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Anonymous(), err
	}
	if !token.Valid {
		return Anonymous(), errors.New("auth: invalid token")
	}
	switch c.Kind {
	case KindAdmin:
		return AdminSession(), nil
	case KindStudent:
		id, err := strconv.ParseInt(c.Subject, 10, 64)
		if err != nil || id <= 0 {
			return Anonymous(), errors.New("auth: bad subject")
		}
		return StudentSession(id, c.Username), nil
	}
	return Anonymous(), errors.New("auth: unknown session kind")
}

// SetCookie issues a session cookie for s.
func (a *TokenService) SetCookie(w http.ResponseWriter, s Session) error {
	tok, err := a.Issue(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(a.ttl),
	})
	return nil
}

// ClearCookie destroys the session unconditionally.
func (a *TokenService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// SessionMiddleware attaches the caller's Session (anonymous when the
// cookie is missing or invalid) and the matching rbac role to the context.
// It never rejects; routes decide what they require.
func SessionMiddleware(a *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := Anonymous()
			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				if parsed, err := a.Parse(c.Value); err == nil {
					s = parsed
				}
			}
			ctx := WithSession(r.Context(), s)
			if s.Kind != KindAnonymous {
				ctx = rbac.WithRole(ctx, string(s.Kind))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
