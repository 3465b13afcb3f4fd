package session

import (
	"context"
	"fmt"

	"github.com/platewise/cookalong/internal/domain"
)

// startVoiceLocked brings the voice engine up and starts draining its
// command channel. Any failure records a voice error and leaves the
// session in manual mode.
func (c *Controller) startVoiceLocked(ctx context.Context) {
	if c.engine == nil {
		c.setErrorLocked(domain.ErrorVoice, "voice requested but no engine is wired", "")
		return
	}
	if err := c.engine.Initialize(ctx); err != nil {
		c.degradeVoiceLocked("initializing", err)
		return
	}
	if err := c.engine.RequestPermission(ctx); err != nil {
		c.degradeVoiceLocked("requesting microphone permission", err)
		return
	}
	if err := c.engine.Start(ctx); err != nil {
		c.degradeVoiceLocked("starting recognition", err)
		return
	}
	c.sess.VoiceEnabled = true
	c.voiceStop = make(chan struct{})
	go c.pump(c.engine.Commands(), c.voiceStop)
	c.log.Info("voice control active")
}

func (c *Controller) degradeVoiceLocked(stage string, err error) {
	c.setErrorLocked(domain.ErrorVoice,
		"voice unavailable, continuing in manual mode",
		fmt.Sprintf("%s: %v", stage, err))
}

// pump feeds recognized commands into the dispatcher until the engine
// closes its channel or the session stops listening.
func (c *Controller) pump(cmds <-chan domain.VoiceCommand, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case cmd, ok := <-cmds:
			if !ok {
				return
			}
			if _, err := c.dispatcher.Dispatch(cmd); err != nil {
				c.log.Warn("voice command failed: %v", err)
				c.SetError(domain.ErrorVoice, "voice command failed", err.Error())
			}
		}
	}
}

// stopVoiceLocked stops recognition if this controller started it.
// Safe to call repeatedly.
func (c *Controller) stopVoiceLocked() {
	if c.voiceStop != nil {
		close(c.voiceStop)
		c.voiceStop = nil
		if c.engine != nil {
			c.engine.Stop()
		}
	}
	if c.sess != nil {
		c.sess.VoiceEnabled = false
	}
}
