// Package speech provides the VoiceEngine implementations: a silent
// no-op for voice-disabled runs and a microphone engine that turns
// local Whisper transcriptions into commands.
package speech

import (
	"context"
	"sync"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// Compile-time interface check.
var _ domain.VoiceEngine = (*NoOp)(nil)

// NoOp is a voice engine that hears nothing and says nothing. It keeps
// wiring uniform when voice is off.
type NoOp struct {
	log *logger.Logger

	mu   sync.Mutex
	cmds chan domain.VoiceCommand
	open bool
}

// NewNoOp creates a silent voice engine.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{
		log:  log.Named("speech"),
		cmds: make(chan domain.VoiceCommand),
	}
}

// Initialize does nothing.
func (n *NoOp) Initialize(ctx context.Context) error { return nil }

// RequestPermission does nothing.
func (n *NoOp) RequestPermission(ctx context.Context) error { return nil }

// Start hands out a fresh, forever-quiet command channel.
func (n *NoOp) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.open {
		n.cmds = make(chan domain.VoiceCommand)
		n.open = true
	}
	return nil
}

// Stop closes the command channel. Safe to call more than once.
func (n *NoOp) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.open {
		close(n.cmds)
		n.open = false
	}
}

// Speak logs the line instead of saying it.
func (n *NoOp) Speak(ctx context.Context, text string, opts domain.SpeechOptions) error {
	n.log.Debug("would say %q", text)
	return nil
}

// Commands returns the current command channel.
func (n *NoOp) Commands() <-chan domain.VoiceCommand {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cmds
}
