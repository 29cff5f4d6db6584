package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/admin"
	api "github.com/mind-engage/mindengage-exam/internal/api/http"
	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/config"
	"github.com/mind-engage/mindengage-exam/internal/db"
	"github.com/mind-engage/mindengage-exam/internal/exam"
	"github.com/mind-engage/mindengage-exam/internal/grading"
	"github.com/mind-engage/mindengage-exam/internal/logger"
	"github.com/mind-engage/mindengage-exam/internal/metrics"
	"github.com/mind-engage/mindengage-exam/internal/ratelimit"
	"github.com/mind-engage/mindengage-exam/internal/settings"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

func main() {
	seed := flag.Bool("seed", false, "load the starter question bank and default lockdown password when missing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.GeneratedSecret {
		lg.Warn("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	}
	if cfg.AdminUser == "" || cfg.AdminPassHash == "" {
		lg.Warn("ADMIN_USER/ADMIN_PASS_HASH not set; admin login disabled")
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	cancel()
	if err != nil {
		lg.Fatal("db open failed", zap.Error(err), zap.String("driver", string(cfg.DBDriver)))
	}
	defer dbh.Close()

	// --- Services ---
	events := syncx.NewEventRepo(cfg.SiteID)
	authSvc := auth.NewService(dbh, events,
		auth.AdminCredential{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash}, lg.Named("auth"))
	settingsSvc := settings.NewService(dbh, events, lg.Named("settings"))
	store := exam.NewSQLStore(dbh)
	engine := exam.NewEngine(store, settingsSvc, grading.NewDefaultGrader(), events, lg.Named("exam"))
	console := admin.NewConsole(dbh, authSvc, store, settingsSvc, events, lg.Named("admin"))

	if *seed {
		if err := seedDefaults(context.Background(), store, settingsSvc, lg); err != nil {
			lg.Fatal("seed failed", zap.Error(err))
		}
	}

	// --- Router ---
	h := api.Routes(api.Deps{
		DB:          dbh,
		Auth:        authSvc,
		Tokens:      auth.NewTokenService(cfg.SessionSecret, cfg.SessionTTL, cfg.Production()),
		Exams:       engine,
		Console:     console,
		Settings:    settingsSvc,
		Metrics:     metrics.New(),
		Log:         lg.Named("http"),
		Limiter:     ratelimit.New(cfg.LoginRatePerMin, time.Minute),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", string(cfg.DBDriver)), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
	lg.Info("server stopped")
}

func seedDefaults(ctx context.Context, store exam.Store, st *settings.Service, lg *zap.Logger) error {
	qs, err := exam.DefaultQuestions()
	if err != nil {
		return err
	}
	n, err := exam.Seed(ctx, store, qs)
	if err != nil {
		return err
	}
	created, err := st.EnsureBlockPassword(ctx)
	if err != nil {
		return err
	}
	lg.Info("seed complete", zap.Int("questions", n), zap.Bool("block_password_set", created))
	return nil
}
