package db

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// Runs against a live Postgres only when EXAM_TEST_POSTGRES_DSN is set.
func TestPostgresSchemaAndUniqueViolation(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("EXAM_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set EXAM_TEST_POSTGRES_DSN to run postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	d, err := Open(ctx, DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	// schema is idempotent
	if err := ensureSchema(ctx, d, DriverPostgres); err != nil {
		t.Fatalf("second ensureSchema: %v", err)
	}

	name := fmt.Sprintf("itest_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = d.ExecContext(context.Background(), `DELETE FROM users WHERE username=$1`, name)
	})
	q := `INSERT INTO users (username, password_hash, created_at) VALUES ($1,$2,$3)`
	if _, err := d.ExecContext(ctx, q, name, "x", 1); err != nil {
		t.Fatal(err)
	}
	_, err = d.ExecContext(ctx, q, name, "y", 2)
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
