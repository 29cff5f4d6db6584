package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestDriverForDSN(t *testing.T) {
	cases := map[string]Driver{
		"postgres://u:p@localhost:5432/exam":   DriverPostgres,
		"postgresql://u:p@localhost:5432/exam": DriverPostgres,
		"file:exam.db?mode=rwc":                DriverSQLite,
		"sqlite://exam.db":                     DriverSQLite,
	}
	for dsn, want := range cases {
		if got := DriverForDSN(dsn); got != want {
			t.Errorf("DriverForDSN(%q) = %s, want %s", dsn, got, want)
		}
	}
}

func openMem(t *testing.T) *sql.DB {
	t.Helper()
	d, err := Open(context.Background(), DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestWithTx_RollbackOnError(t *testing.T) {
	d := openMem(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, d, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO admin_settings (setting_key, setting_value) VALUES ($1,$2)`, "k", "v"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	var n int
	if err := d.QueryRowContext(ctx, `SELECT COUNT(1) FROM admin_settings`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rollback left %d rows", n)
	}
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	d := openMem(t)
	ctx := context.Background()
	q := `INSERT INTO users (username, password_hash, created_at) VALUES ($1,$2,$3)`
	if _, err := d.ExecContext(ctx, q, "amy", "x", 1); err != nil {
		t.Fatal(err)
	}
	_, err := d.ExecContext(ctx, q, "amy", "y", 2)
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Fatal("plain error reported as unique violation")
	}
}
