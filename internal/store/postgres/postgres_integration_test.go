package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberagenda/internal/domain"
	"barberagenda/internal/store"
)

// The suite runs against a throwaway schema so parallel CI jobs sharing a
// database never collide. Skipped unless a test database is configured.
func openTestDB(t *testing.T) (context.Context, *AppointmentRepo, *TrashRepo) {
	t.Helper()
	databaseURL := strings.TrimSpace(os.Getenv("BARBERAGENDA_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("BARBERAGENDA_TEST_DATABASE_URL not set")
	}

	// A single connection keeps the session-level search_path stable.
	db, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	ctx := context.Background()
	schema := "barberagenda_test_" + randomHex(t, 8)
	if _, err := db.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		dropCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(dropCtx)
	})
	if _, err := db.NewRaw("SET search_path TO " + schema).Exec(ctx); err != nil {
		t.Fatalf("set search_path: %v", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	return ctx, NewAppointmentRepo(db), NewTrashRepo(db)
}

func testAppointment(owner, slot string) domain.Appointment {
	return domain.Appointment{
		OwnerID:           owner,
		OwnerName:         "Diego",
		OwnerEmail:        "diego@example.com",
		ServiceName:       "Corte",
		ServicePriceCents: 3500,
		Date:              "2030-06-01",
		TimeSlot:          slot,
		ScheduledAt:       time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC),
		Status:            domain.StatusPending,
	}
}

func TestPostgresIntegration_TrashRoundTrip(t *testing.T) {
	ctx, appts, trash := openTestDB(t)

	created, err := appts.Create(ctx, testAppointment("u1", "10:00"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("Create left ID nil")
	}

	rec, err := trash.Insert(ctx, domain.Trash(created, time.Now().UTC()))
	if err != nil {
		t.Fatalf("trash Insert error: %v", err)
	}
	if rec.OriginalID != created.ID {
		t.Fatalf("OriginalID = %s, want %s", rec.OriginalID, created.ID)
	}
	if err := appts.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := appts.Delete(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}

	restored, err := appts.Create(ctx, rec.Restored())
	if err != nil {
		t.Fatalf("restore Create error: %v", err)
	}
	if restored.ServiceName != created.ServiceName || restored.TimeSlot != created.TimeSlot {
		t.Fatalf("restored %+v does not match original %+v", restored, created)
	}
	if err := trash.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("trash Delete error: %v", err)
	}
}

func TestPostgresIntegration_RenameFansOut(t *testing.T) {
	ctx, appts, _ := openTestDB(t)

	for _, slot := range []string{"09:00", "10:00", "11:00"} {
		if _, err := appts.Create(ctx, testAppointment("u1", slot)); err != nil {
			t.Fatalf("Create %s error: %v", slot, err)
		}
	}
	if _, err := appts.Create(ctx, testAppointment("u2", "09:00")); err != nil {
		t.Fatalf("Create other owner error: %v", err)
	}

	n, err := appts.RenameOwner(ctx, "u1", "Diego Silva")
	if err != nil {
		t.Fatalf("RenameOwner error: %v", err)
	}
	if n != 3 {
		t.Fatalf("renamed %d rows, want 3", n)
	}

	rows, err := appts.ListByOwner(ctx, "u2")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(rows) != 1 || rows[0].OwnerName != "Diego" {
		t.Fatalf("other owner rows = %+v, rename leaked", rows)
	}
}

func TestPostgresIntegration_ClaimUnseenCancellationsOnce(t *testing.T) {
	ctx, appts, _ := openTestDB(t)

	canceled, err := appts.Create(ctx, testAppointment("u1", "10:00"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := appts.MarkCanceled(ctx, canceled.ID, true); err != nil {
		t.Fatalf("MarkCanceled error: %v", err)
	}

	staffCanceled, err := appts.Create(ctx, testAppointment("u1", "11:00"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := appts.MarkCanceled(ctx, staffCanceled.ID, false); err != nil {
		t.Fatalf("MarkCanceled error: %v", err)
	}

	claimed, err := appts.ClaimUnseenClientCancellations(ctx)
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != canceled.ID {
		t.Fatalf("claimed = %+v, want only the client cancellation", claimed)
	}
	if !claimed[0].StaffNotified {
		t.Fatal("claimed row not marked staff-notified")
	}

	again, err := appts.ClaimUnseenClientCancellations(ctx)
	if err != nil {
		t.Fatalf("second Claim error: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second claim returned %d rows, want 0", len(again))
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type mig struct {
		name string
		path string
	}
	migs := make([]mig, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		migs = append(migs, mig{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].name < migs[j].name })

	for _, m := range migs {
		b, err := os.ReadFile(m.path)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("runtime.Caller failed")
	}
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", errors.New("missing goose up marker")
	}
	afterUp := strings.TrimLeft(sql[upIdx+len(upMarker):], "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
