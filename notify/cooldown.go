package notify

import (
	"sync"
	"time"
)

// Cooldown remembers when each site was last notified. It lives in memory
// only; a restart forgets everything.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewCooldown creates a Cooldown. A zero window never suppresses.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, last: make(map[string]time.Time)}
}

// Active reports whether site was notified less than window before now.
func (c *Cooldown) Active(site string, now time.Time) bool {
	if c.window <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.last[site]
	if !ok {
		return false
	}
	if now.Sub(at) >= c.window {
		delete(c.last, site)
		return false
	}
	return true
}

// Mark records a delivered notification.
func (c *Cooldown) Mark(site string, now time.Time) {
	if c.window <= 0 {
		return
	}
	c.mu.Lock()
	c.last[site] = now
	c.mu.Unlock()
}
