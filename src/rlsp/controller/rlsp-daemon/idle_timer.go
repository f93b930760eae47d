package rlspdaemon

import (
	"context"
	"fmt"
	"time"
)

// startIdleTimer arms the idle timer before the first connection. It is a no-op when no idle timeout applies.
func (c *controller) startIdleTimer() {
	if c.idleTimeout == 0 {
		return
	}

	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()
	c.idleTimer = time.AfterFunc(c.idleTimeout, c.onIdle)
}

// refreshIdleTimer stops the timer while sessions are connected and rearms it once the last one is gone.
func (c *controller) refreshIdleTimer(ctx context.Context) error {
	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()

	if c.idleTimer == nil {
		return nil
	}

	currentSessions, err := c.sessions.SessionCount(ctx)
	if err != nil {
		return fmt.Errorf("error resetting timeout: %w", err)
	}

	c.idleTimer.Stop()
	if currentSessions == 0 {
		c.idleTimer.Reset(c.idleTimeout)
	}
	return nil
}

// refreshIdleTimerOrLog is refreshIdleTimer for deferred calls, where the error can only be logged.
func (c *controller) refreshIdleTimerOrLog(ctx context.Context) {
	if err := c.refreshIdleTimer(ctx); err != nil {
		c.logger.Errorf("idle timer not refreshed: %s", err)
	}
}

func (c *controller) stopIdleTimer() {
	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()

	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
}

func (c *controller) onIdle() {
	c.logger.Infow("no active sessions, shutting down", "idleTimeout", c.idleTimeout.String())
	if err := c.shutdowner.Shutdown(); err != nil {
		c.logger.Errorf("requesting shutdown: %s", err)
	}
}
