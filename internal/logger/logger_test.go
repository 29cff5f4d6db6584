package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mind-engage/mindengage-exam/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.log")
	cfg := &config.Config{Env: "test", Log: config.Log{Level: "info", File: path, MaxSizeMB: 1}}

	log, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hello")
	log.Debug("filtered")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Fatal("log file is empty")
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&config.Config{Log: config.Log{Level: "loud"}}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
