package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
	"github.com/platewise/cookalong/internal/voice"
)

// Compile-time interface check.
var _ domain.VoiceEngine = (*Mic)(nil)

// MicOption configures the microphone engine.
type MicOption func(*Mic)

// WithChunkDuration sets how long each listening chunk records.
// Shorter chunks respond faster but transcribe more often.
func WithChunkDuration(d time.Duration) MicOption {
	return func(m *Mic) { m.chunk = d }
}

// WithTempDir sets the scratch directory for recorded WAV chunks.
func WithTempDir(dir string) MicOption {
	return func(m *Mic) { m.tempDir = dir }
}

// WithSynth wires a synthesizer so Speak produces audio. Without one,
// Speak logs the line and stays silent.
func WithSynth(s *Synth) MicOption {
	return func(m *Mic) { m.synth = s }
}

// WithSpeechCacheDir enables the on-disk audio cache at dir.
func WithSpeechCacheDir(dir string) MicOption {
	return func(m *Mic) { m.cacheDir = dir }
}

// Mic hears the cook through the default microphone: it records short
// chunks, transcribes them with a local Whisper model, parses the text
// into commands, and pushes those onto the command channel. While the
// engine is speaking, recording pauses so it never transcribes its own
// voice.
type Mic struct {
	whisperBin string
	modelPath  string
	tempDir    string
	cacheDir   string
	chunk      time.Duration
	parser     *voice.Parser
	synth      *Synth
	log        *logger.Logger

	player *Player
	cache  *AudioCache

	mu       sync.Mutex
	cmds     chan domain.VoiceCommand
	cancel   context.CancelFunc
	speaking bool

	wg      sync.WaitGroup
	speakMu sync.Mutex // one utterance at a time
}

// NewMic creates a microphone engine over a whisper-cli binary and a
// GGML model file.
func NewMic(whisperBin, modelPath string, log *logger.Logger, opts ...MicOption) *Mic {
	m := &Mic{
		whisperBin: whisperBin,
		modelPath:  modelPath,
		tempDir:    ".cookalong-stt",
		chunk:      2 * time.Second,
		parser:     voice.NewParser(voice.WithParserLogger(log)),
		log:        log.Named("mic"),
		cmds:       make(chan domain.VoiceCommand, 8),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize checks the transcription toolchain and, when a
// synthesizer is wired, brings up the audio output.
func (m *Mic) Initialize(ctx context.Context) error {
	if _, err := exec.LookPath(m.whisperBin); err != nil {
		return fmt.Errorf("whisper binary %q: %w", m.whisperBin, err)
	}
	if _, err := os.Stat(m.modelPath); err != nil {
		return fmt.Errorf("whisper model: %w", err)
	}
	if err := os.MkdirAll(m.tempDir, 0o755); err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	if m.synth != nil {
		player, err := NewPlayer(m.log)
		if err != nil {
			return fmt.Errorf("audio output: %w", err)
		}
		m.player = player
		m.cache = NewAudioCache(m.cacheDir, m.cacheDir != "", m.log)
	}
	m.log.Info("microphone engine ready (model=%s)", filepath.Base(m.modelPath))
	return nil
}

// RequestPermission is a no-op on the desktop; the OS prompts on first
// capture.
func (m *Mic) RequestPermission(ctx context.Context) error {
	m.log.Debug("microphone permission left to the OS")
	return nil
}

// Start begins the background listening loop.
func (m *Mic) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return errors.New("already listening")
	}
	m.cmds = make(chan domain.VoiceCommand, 8)
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go m.run(runCtx, m.cmds)
	return nil
}

// Stop ends the listening loop and closes the command channel. Safe to
// call more than once; Start works again afterwards.
func (m *Mic) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
}

// Commands returns the channel the current listening run feeds.
func (m *Mic) Commands() <-chan domain.VoiceCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cmds
}

// Speak synthesizes and plays one line. Utterances serialize, and the
// microphone stays muted for the duration.
func (m *Mic) Speak(ctx context.Context, text string, opts domain.SpeechOptions) error {
	if m.synth == nil || m.player == nil {
		m.log.Debug("no synthesizer wired, not saying %q", text)
		return nil
	}

	m.speakMu.Lock()
	defer m.speakMu.Unlock()
	m.setSpeaking(true)
	defer m.setSpeaking(false)

	audio, ok := m.cache.Get(text, opts)
	if !ok {
		var err error
		audio, err = m.synth.Synthesize(ctx, text, opts)
		if err != nil {
			return fmt.Errorf("synthesizing: %w", err)
		}
		m.cache.Put(text, opts, audio)
	}
	if err := m.player.Play(audio); err != nil {
		return fmt.Errorf("playing: %w", err)
	}
	return nil
}

func (m *Mic) setSpeaking(v bool) {
	m.mu.Lock()
	m.speaking = v
	m.mu.Unlock()
}

func (m *Mic) isSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// run is the listening loop: record, transcribe, parse, push.
func (m *Mic) run(ctx context.Context, out chan<- domain.VoiceCommand) {
	defer m.wg.Done()
	defer close(out)

	m.log.Info("listening (chunk=%s)", m.chunk)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("stopped listening")
			return
		default:
		}

		if m.isSpeaking() {
			m.pause(ctx, 200*time.Millisecond)
			continue
		}

		text := CleanTranscript(m.recordChunk(ctx, m.chunk))
		if text == "" {
			continue
		}
		// The chunk is contaminated if playback started mid-recording.
		if m.isSpeaking() {
			m.log.Debug("discarding chunk recorded over playback: %q", text)
			continue
		}

		cmd := m.parser.Parse(text)
		m.log.Debug("heard %q -> %s", text, cmd.Kind)
		select {
		case out <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

// recordChunk does one record-and-transcribe cycle and returns the raw
// transcript.
func (m *Mic) recordChunk(ctx context.Context, d time.Duration) string {
	var (
		result string
		wg     sync.WaitGroup
	)
	wg.Add(1)

	t, err := audiotranscriber.NewTranscriber(
		m.whisperBin,
		m.modelPath,
		m.tempDir,
		"wav",
		func(text string) { result = text; wg.Done() },
		m.log.GetLevel() >= logger.LevelVerbose,
	)
	if err != nil {
		m.log.Error("transcriber init: %v", err)
		m.pause(ctx, 2*time.Second)
		return ""
	}
	if err := t.Start(); err != nil {
		m.log.Error("recording start: %v", err)
		m.pause(ctx, 2*time.Second)
		return ""
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
	t.Stop()
	wg.Wait()
	return result
}

// pause sleeps unless the context ends first.
func (m *Mic) pause(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
