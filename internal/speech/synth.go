package speech

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// SynthOption configures the synthesizer client.
type SynthOption func(*Synth)

// WithAudioFormat overrides the requested audio format.
func WithAudioFormat(format string) SynthOption {
	return func(s *Synth) { s.format = format }
}

// WithHTTPTimeout sets the synthesis request timeout.
func WithHTTPTimeout(d time.Duration) SynthOption {
	return func(s *Synth) { s.httpClient.Timeout = d }
}

// Synth turns text into WAV audio through the Azure speech service.
// Rate, pitch and language come from the caller's SpeechOptions, so
// the cook's voice preferences reach the synthesizer unchanged.
type Synth struct {
	key        string
	region     string
	format     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewSynth creates a synthesizer client with the given credentials.
func NewSynth(key, region string, log *logger.Logger, opts ...SynthOption) *Synth {
	s := &Synth{
		key:        key,
		region:     region,
		format:     DefaultAudioFormat,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.Named("synth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize converts text to WAV bytes using the voice and prosody
// the options ask for.
func (s *Synth) Synthesize(ctx context.Context, text string, opts domain.SpeechOptions) ([]byte, error) {
	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", s.region)
	ssml := buildSSML(text, opts)
	s.log.Debug("synthesizing %d chars (lang=%s rate=%.2f)", len(text), opts.Lang, opts.Rate)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating synthesis request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", s.format)
	req.Header.Set("User-Agent", "cookalong/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("speech service returned %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	s.log.Debug("got %d bytes of audio", len(audio))
	return audio, nil
}

// buildSSML wraps text in SSML, mapping the rate and pitch multipliers
// to prosody percentages (1.0 = +0%).
func buildSSML(text string, opts domain.SpeechOptions) string {
	lang := opts.Lang
	if lang == "" {
		lang = "en-US"
	}
	rate := prosodyPercent(opts.Rate)
	pitch := prosodyPercent(opts.Pitch)
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice name='%s'><prosody rate='%s' pitch='%s'>%s</prosody></voice></speak>`,
		lang, VoiceFor(lang), rate, pitch, text,
	)
}

// prosodyPercent converts a multiplier to a signed percentage string.
// Zero (unset) is treated as 1.0.
func prosodyPercent(mult float64) string {
	if mult <= 0 {
		mult = 1
	}
	return fmt.Sprintf("%+d%%", int(math.Round((mult-1)*100)))
}
