// Package prefs persists user preferences between cooking sessions.
package prefs

import (
	"context"
	"sync"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// Compile-time interface check.
var _ domain.PreferenceStore = (*MemoryStore)(nil)

// MemoryStore keeps preferences for the life of the process. Safe for
// concurrent access.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs domain.Preferences
	set   bool
	log   *logger.Logger
}

// NewMemoryStore creates a store that hands out the defaults until the
// first save.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{log: log.Named("prefs")}
}

// Load returns the stored preferences, or the defaults when nothing
// has been saved yet.
func (s *MemoryStore) Load(ctx context.Context) (domain.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return domain.DefaultPreferences(), nil
	}
	return s.prefs, nil
}

// Save overwrites the stored preferences.
func (s *MemoryStore) Save(ctx context.Context, p domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = p
	s.set = true
	s.log.Debug("saved preferences (measurement=%s, voice=%v, threshold=%.2f)",
		p.Measurement, p.VoiceEnabled, p.ConfidenceThreshold)
	return nil
}
