package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, nil)
}

func customPrefs() domain.Preferences {
	return domain.Preferences{
		Measurement:         domain.Imperial,
		VoiceEnabled:        true,
		VoiceRate:           1.25,
		VoicePitch:          0.9,
		VoiceLang:           "en-GB",
		AutoStartTimers:     false,
		ConfidenceThreshold: 0.7,
	}
}

func TestMemoryStoreDefaultsUntilSave(t *testing.T) {
	store := NewMemoryStore(testLogger())
	ctx := context.Background()

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != domain.DefaultPreferences() {
		t.Errorf("fresh Load = %+v, want defaults", got)
	}

	want := customPrefs()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	store, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty db: %v", err)
	}
	if got != domain.DefaultPreferences() {
		t.Errorf("empty db Load = %+v, want defaults", got)
	}

	want := customPrefs()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}

	// Saving again updates the single row rather than growing the table.
	want.VoiceRate = 0.8
	want.Measurement = domain.Metric
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("after upsert Load = %+v, want %+v", got, want)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	want := customPrefs()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if got != want {
		t.Errorf("reopened Load = %+v, want %+v", got, want)
	}
}
