package alert

import (
	"context"
	"fmt"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
	"github.com/platewise/cookalong/internal/timer"
)

// Compile-time interface check.
var _ domain.Alerter = (*Cascade)(nil)

// Ringer plays an audible alert. Chime implements it.
type Ringer interface {
	Ring(ctx context.Context) error
}

// Option configures the cascade.
type Option func(*Cascade)

// WithRinger sets the audible alert. Nil means no audio.
func WithRinger(r Ringer) Option {
	return func(c *Cascade) {
		c.ringer = r
	}
}

// WithNotifier sets the fallback notifier.
func WithNotifier(n domain.Notifier) Option {
	return func(c *Cascade) {
		c.notifier = n
	}
}

// WithPermission records whether notification permission was granted.
func WithPermission(granted bool) Option {
	return func(c *Cascade) {
		c.granted = granted
	}
}

// WithLogger attaches a logger to the cascade.
func WithLogger(log *logger.Logger) Option {
	return func(c *Cascade) {
		c.log = log.Named("alert")
	}
}

// Cascade alerts on timer completion: the chime first, then an urgent
// notification when the chime is unavailable or fails and permission
// was granted, otherwise just a log line. Alerting is best-effort; a
// finished timer must never take the session down.
type Cascade struct {
	ringer   Ringer
	notifier domain.Notifier
	granted  bool
	log      *logger.Logger
}

// NewCascade builds an alert cascade.
func NewCascade(opts ...Option) *Cascade {
	c := &Cascade{log: logger.New(logger.LevelOff, nil)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TimerDone runs the cascade for a completed timer.
func (c *Cascade) TimerDone(ctx context.Context, t domain.Timer) error {
	msg := fmt.Sprintf("Timer %q is done (%s)", t.Name, timer.FormatTimeForSpeech(t.Duration))

	if c.ringer != nil {
		err := c.ringer.Ring(ctx)
		if err == nil {
			c.log.Debug("chimed for timer %s", t.ID)
			return nil
		}
		c.log.Warn("chime failed for timer %s: %v", t.ID, err)
	}

	if c.notifier != nil && c.granted {
		if err := c.notifier.NotifyUrgent(ctx, msg); err != nil {
			return fmt.Errorf("notifying for timer %s: %w", t.ID, err)
		}
		return nil
	}

	c.log.Info("timer done (unalerted): %s", msg)
	return nil
}
