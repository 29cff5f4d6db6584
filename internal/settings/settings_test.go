package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-exam/internal/db/dbtest"
	syncx "github.com/mind-engage/mindengage-exam/internal/sync"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(dbtest.Open(t), syncx.NewEventRepo(""), nil)
}

func TestExamDurationDefaults(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	if d, err := s.ExamDuration(ctx); err != nil || d != DefaultDurationMinutes {
		t.Fatalf("unset: %d %v", d, err)
	}
	for _, bad := range []string{"abc", "0", "-5", ""} {
		if err := s.store.Set(ctx, s.db, KeyExamDuration, bad); err != nil {
			t.Fatal(err)
		}
		if d, _ := s.ExamDuration(ctx); d != DefaultDurationMinutes {
			t.Errorf("stored %q: got %d", bad, d)
		}
	}
}

func TestSetExamDurationValidation(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	if _, err := s.SetExamDuration(ctx, "45"); err != nil {
		t.Fatal(err)
	}
	for _, raw := range []string{"0", "301", "abc", "4.5"} {
		_, err := s.SetExamDuration(ctx, raw)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%q: want ValidationError, got %v", raw, err)
		}
	}
	if d, _ := s.ExamDuration(ctx); d != 45 {
		t.Fatalf("invalid input changed the setting: %d", d)
	}
	for _, ok := range []string{"1", "300"} {
		if _, err := s.SetExamDuration(ctx, ok); err != nil {
			t.Errorf("%q rejected: %v", ok, err)
		}
	}
}

func TestVerifyBlockPassword(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	if ok, _ := s.VerifyBlockPassword(ctx, "exam2024"); !ok {
		t.Fatal("default password should verify")
	}
	if ok, _ := s.VerifyBlockPassword(ctx, "nope"); ok {
		t.Fatal("wrong password verified")
	}

	if err := s.SetBlockPassword(ctx, "s3cret"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.VerifyBlockPassword(ctx, "exam2024"); ok {
		t.Fatal("old default still verifies")
	}
	if ok, _ := s.VerifyBlockPassword(ctx, "s3cret"); !ok {
		t.Fatal("new password rejected")
	}
}

func TestSettingEventsOmitPassword(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	if err := s.SetBlockPassword(ctx, "hunter2"); err != nil {
		t.Fatal(err)
	}
	evs, err := s.events.List(ctx, s.db, syncx.TypeSettingChanged, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 {
		t.Fatalf("want 1 event, got %d", len(evs))
	}
	if got := evs[0].DataJSON; got != `{"key":"block_password"}` {
		t.Fatalf("event payload: %s", got)
	}
}

func TestEnsureBlockPassword(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	if created, err := s.EnsureBlockPassword(ctx); err != nil || !created {
		t.Fatalf("first: %v %v", created, err)
	}
	if created, err := s.EnsureBlockPassword(ctx); err != nil || created {
		t.Fatalf("second: %v %v", created, err)
	}
}
