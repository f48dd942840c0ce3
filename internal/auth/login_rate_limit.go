package auth

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"parish-site/internal/observability"
)

const (
	defaultLoginMaxAttempts = 5
	defaultLoginWindow      = 15 * time.Minute
	defaultSweepInterval    = time.Minute
)

type RateLimitConfig struct {
	MaxAttempts   int
	Window        time.Duration
	SweepInterval time.Duration
	// TrustProxy keys requests by the first X-Forwarded-For hop.
	TrustProxy bool
}

type rateLimitEntry struct {
	attempts        int
	windowStartedAt time.Time
	lastAttempt     time.Time
}

// LoginRateLimiter counts login attempts per client key in fixed windows.
// State is process local; a restart forgets every counter.
type LoginRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	maxAttempts int
	window      time.Duration
	trustProxy  bool
	clock       clock.Clock

	ticker   *clock.Ticker
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewLoginRateLimiter(config RateLimitConfig, clk clock.Clock) *LoginRateLimiter {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultLoginMaxAttempts
	}
	if config.Window <= 0 {
		config.Window = defaultLoginWindow
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaultSweepInterval
	}
	if clk == nil {
		clk = clock.New()
	}

	l := &LoginRateLimiter{
		entries:     make(map[string]*rateLimitEntry),
		maxAttempts: config.MaxAttempts,
		window:      config.Window,
		trustProxy:  config.TrustProxy,
		clock:       clk,
		ticker:      clk.Ticker(config.SweepInterval),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go l.sweepLoop()

	return l
}

// CheckAndRecord counts an attempt for key and reports whether it is within
// the limit. Blocked attempts are counted too, and never move the window.
func (l *LoginRateLimiter) CheckAndRecord(key string) (bool, time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.Sub(entry.windowStartedAt) > l.window {
		entry = &rateLimitEntry{windowStartedAt: now}
		l.entries[key] = entry
	}

	entry.attempts++
	entry.lastAttempt = now

	if entry.attempts > l.maxAttempts {
		retryAfter := entry.windowStartedAt.Add(l.window).Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter
	}

	return true, 0
}

// Sweep drops entries whose window has elapsed and returns how many went.
func (l *LoginRateLimiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.entries {
		if now.Sub(entry.windowStartedAt) > l.window {
			delete(l.entries, key)
			removed++
		}
	}

	return removed
}

func (l *LoginRateLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

func (l *LoginRateLimiter) Shutdown() {
	l.stopOnce.Do(func() {
		close(l.stop)
		<-l.done
	})
}

func (l *LoginRateLimiter) sweepLoop() {
	defer close(l.done)
	defer l.ticker.Stop()

	for {
		select {
		case <-l.ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.CheckAndRecord(observability.ClientIP(r, l.trustProxy))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			writeError(w, http.StatusTooManyRequests, retryMessage(retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// retryMessage rounds up to whole minutes so it never promises less than
// the Retry-After header.
func retryMessage(retryAfter time.Duration) string {
	minutes := int(math.Ceil(retryAfter.Minutes()))
	if minutes <= 1 {
		return "too many login attempts, try again in 1 minute"
	}
	return fmt.Sprintf("too many login attempts, try again in %d minutes", minutes)
}
