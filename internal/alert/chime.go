// Package alert makes timer completions audible and visible: a
// synthesized chime, a terminal notifier, and a cascade that falls
// back from one to the other.
package alert

import (
	"bytes"
	"context"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/platewise/cookalong/internal/logger"
)

const (
	sampleRate   = 24000
	channelCount = 1

	chimeFreq   = 880.0 // A5, cuts through kitchen noise
	beepLen     = 150 * time.Millisecond
	gapLen      = 100 * time.Millisecond
	beepCount   = 3
	rampSamples = 120 // ~5ms fade to avoid clicks
)

// Chime plays a short synthesized tone through the system audio device.
type Chime struct {
	ctx *oto.Context
	log *logger.Logger

	mu     sync.Mutex
	active *oto.Player
}

// NewChime initializes the audio context. Returns an error when no
// audio device is available; callers treat that as "no chime" rather
// than fatal.
func NewChime(log *logger.Logger) (*Chime, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("chime initialized (rate=%d)", sampleRate)
	return &Chime{ctx: ctx, log: log}, nil
}

// Ring plays the chime pattern. Blocks until playback finishes or ctx
// is cancelled.
func (c *Chime) Ring(ctx context.Context) error {
	pcm := chimePCM()
	player := c.ctx.NewPlayer(bytes.NewReader(pcm))

	c.mu.Lock()
	c.active = player
	c.mu.Unlock()

	player.Play()
	c.log.Debug("chime: playing %d bytes of PCM", len(pcm))

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			c.clearActive()
			player.Close()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	c.clearActive()
	return player.Close()
}

// Stop interrupts a ring in progress. Safe to call when nothing is
// playing.
func (c *Chime) Stop() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		active.Pause()
		c.log.Debug("chime: interrupted")
	}
}

func (c *Chime) clearActive() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

// chimePCM renders the beep pattern as signed 16-bit little-endian
// mono samples.
func chimePCM() []byte {
	beep := tonePCM(chimeFreq, beepLen, 0.4)
	gap := silencePCM(gapLen)

	var buf bytes.Buffer
	for i := 0; i < beepCount; i++ {
		if i > 0 {
			buf.Write(gap)
		}
		buf.Write(beep)
	}
	return buf.Bytes()
}

// tonePCM synthesizes a sine tone with short attack and release ramps.
func tonePCM(freq float64, dur time.Duration, amplitude float64) []byte {
	n := int(float64(sampleRate) * dur.Seconds())
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		env := 1.0
		if i < rampSamples {
			env = float64(i) / rampSamples
		} else if n-i < rampSamples {
			env = float64(n-i) / rampSamples
		}
		v := amplitude * env * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		s := int16(v * math.MaxInt16)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

func silencePCM(dur time.Duration) []byte {
	n := int(float64(sampleRate) * dur.Seconds())
	return make([]byte, n*2)
}
