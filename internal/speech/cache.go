package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// AudioCache avoids re-synthesizing lines the assistant says often
// ("Timer is done", step repeats). Two tiers: an in-memory map and an
// optional on-disk layer that survives restarts. The key covers the
// speech options too; changing the voice rate must miss.
type AudioCache struct {
	mu      sync.RWMutex
	entries map[string][]byte // key -> WAV bytes
	dir     string            // empty disables the disk tier
	write   bool              // persist new entries to disk
	log     *logger.Logger
}

// NewAudioCache creates a cache. With a non-empty dir, existing files
// are always read; new entries are written only when write is true.
func NewAudioCache(dir string, write bool, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		entries: make(map[string][]byte),
		dir:     dir,
		write:   write,
		log:     log.Named("cache"),
	}
	if dir != "" && write {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("creating audio cache dir %s: %v", dir, err)
		}
	}
	return c
}

// Get returns cached audio for the utterance, checking memory first
// and then disk. Disk hits are promoted to memory.
func (c *AudioCache) Get(text string, opts domain.SpeechOptions) ([]byte, bool) {
	key := cacheKey(text, opts)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return data, true
	}

	if c.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
	c.log.Debug("disk hit for %q (%d bytes)", short(text), len(data))
	return data, true
}

// Put stores audio for the utterance in memory and, when enabled, on
// disk.
func (c *AudioCache) Put(text string, opts domain.SpeechOptions, audio []byte) {
	key := cacheKey(text, opts)

	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.dir == "" || !c.write {
		return
	}
	if err := os.WriteFile(c.path(key), audio, 0o644); err != nil {
		c.log.Error("audio cache write: %v", err)
	}
}

// Len returns the number of in-memory entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".wav")
}

// cacheKey hashes the utterance together with everything that changes
// how it sounds.
func cacheKey(text string, opts domain.SpeechOptions) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%.2f|%.2f|%s|%s",
		VoiceFor(opts.Lang), opts.Rate, opts.Pitch, opts.Lang, text)))
	return hex.EncodeToString(h[:])
}

func short(s string) string {
	if len(s) <= 40 {
		return s
	}
	return s[:37] + "..."
}
