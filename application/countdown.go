package application

import (
	"sync"
	"time"
)

// countdown is one running phase timer. Stop is idempotent: stopping an
// already-stopped countdown is a no-op, never an error.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func (c *countdown) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

// startCountdown replaces any active countdown with a fresh one ticking once
// per second. Every resyncEvery seconds the remaining time is rebroadcast to
// mask lost packets. check, when non-nil, runs each tick and may finish the
// countdown early; expire runs exactly once when the timer reaches zero.
func (c *Controller) startCountdown(seconds, resyncEvery int, check func() bool, expire func()) {
	cd := &countdown{stop: make(chan struct{})}

	c.mu.Lock()
	prev := c.timer
	c.timer = cd
	c.mu.Unlock()
	prev.Stop()

	go func() {
		remaining := seconds
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-cd.stop:
				return
			case <-ticker.C:
				remaining--
				if remaining > 0 && remaining%resyncEvery == 0 {
					c.broadcastTimerSync(remaining)
				}
				if check != nil && check() {
					cd.Stop()
					return
				}
				if remaining <= 0 {
					cd.Stop()
					expire()
					return
				}
			}
		}
	}()
}

// stopCountdown cancels the active countdown, if any.
func (c *Controller) stopCountdown() {
	c.mu.Lock()
	cd := c.timer
	c.timer = nil
	c.mu.Unlock()
	cd.Stop()
}
