package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/admin"
	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/exam"
	"github.com/mind-engage/mindengage-exam/internal/metrics"
	"github.com/mind-engage/mindengage-exam/internal/ratelimit"
	"github.com/mind-engage/mindengage-exam/internal/rbac"
	"github.com/mind-engage/mindengage-exam/internal/settings"
)

type Deps struct {
	DB       *sql.DB
	Auth     *auth.Service
	Tokens   *auth.TokenService
	Exams    *exam.Engine
	Console  *admin.Console
	Settings *settings.Service
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	// Limiter throttles credential POSTs per client IP; nil disables it.
	Limiter     *ratelimit.Limiter
	CORSOrigins []string
}

func Routes(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(d.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.SessionMiddleware(d.Tokens))

	throttle := func(deny http.HandlerFunc) func(http.Handler) http.Handler {
		if d.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return ratelimit.Middleware(d.Limiter, deny)
	}

	r.Get("/", IndexHandler())
	r.Get("/register", RegisterPageHandler())
	r.With(throttle(LimitedHandler(d.Metrics, "/register"))).
		Post("/register", RegisterHandler(d.Auth, log))
	r.Get("/login", LoginPageHandler())
	r.With(throttle(LimitedHandler(d.Metrics, "/login"))).
		Post("/login", LoginHandler(d.Auth, d.Tokens, d.Metrics, log))
	r.Get("/logout", LogoutHandler(d.Tokens))

	// Student pages redirect to /login when the session does not qualify.
	r.With(rbac.Require(rbac.PermExamTake, redirectToLogin)).
		Get("/exam", ExamPageHandler(d.Exams, log))
	r.With(rbac.Require(rbac.PermExamSubmit, redirectToLogin)).
		Post("/submit_exam", SubmitExamHandler(d.Exams, d.Metrics, log))
	r.With(rbac.Require(rbac.PermResultView, redirectToLogin)).
		Get("/exam_completed", ExamCompletedHandler(d.Exams, log))

	// The lockdown check is called from script and answers 401 JSON instead.
	r.With(throttle(jsonTooManyRequests), rbac.Require(rbac.PermLockdownVerify, jsonUnauthenticated)).
		Post("/verify_block_password", VerifyBlockPasswordHandler(d.Settings, log))

	r.Route("/admin", func(ar chi.Router) {
		ar.With(rbac.Require(rbac.PermDashboardView, redirectToLogin)).
			Get("/dashboard", DashboardHandler(d.Console, log))
		ar.With(rbac.Require(rbac.PermDashboardView, redirectToLogin)).
			Get("/events", EventsHandler(d.Console, log))
		ar.With(rbac.Require(rbac.PermSettingsWrite, redirectToLogin)).
			Post("/set_block_password", SetBlockPasswordHandler(d.Console, log))
		ar.With(rbac.Require(rbac.PermSettingsWrite, redirectToLogin)).
			Post("/set_exam_duration", SetExamDurationHandler(d.Console, log))
		ar.With(rbac.Require(rbac.PermQuestionCreate, redirectToLogin)).
			Post("/create_question", CreateQuestionHandler(d.Console, log))
		ar.With(rbac.Require(rbac.PermQuestionDelete, redirectToLogin)).
			Post("/delete_question/{id}", DeleteQuestionHandler(d.Console, log))
	})

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(d.DB))
	r.Handle("/metrics", d.Metrics.Handler())
	return r
}
