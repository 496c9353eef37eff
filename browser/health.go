package browser

import (
	"math"
	"sync"
	"time"
)

// Browser retirement thresholds.
const (
	maxErrScore = 3.0
	maxUses     = 50
	maxAge      = 50 * time.Minute
)

// health scores one browser process. Failures add 1, successes take 0.5
// off (min 0). A process is retired once its score, use count or age
// crosses a threshold.
type health struct {
	mu       sync.Mutex
	errScore float64
	uses     int
	born     time.Time
}

func newHealth(now time.Time) *health {
	return &health{born: now}
}

func (h *health) record(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uses++
	if ok {
		h.errScore = math.Max(0, h.errScore-0.5)
	} else {
		h.errScore++
	}
}

func (h *health) exhausted(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errScore >= maxErrScore || h.uses >= maxUses || now.Sub(h.born) >= maxAge
}
