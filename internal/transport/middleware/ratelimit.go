package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/hanzi-backend/pkg/ctxutil"
)

// idleBucketTTL is how long an untouched bucket survives cleanup.
const idleBucketTTL = 10 * time.Minute

// RateLimiter implements per-client token bucket rate limiting.
type RateLimiter struct {
	buckets sync.Map // map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a rate limiter with background cleanup.
// Call Stop() on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{stop: make(chan struct{})}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the background cleanup goroutine. It is safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit returns middleware that allows maxPerMinute requests per client IP.
// The client is identified by the IP RequestID stored in the context,
// falling back to RemoteAddr. A non-positive maxPerMinute returns nil,
// which Chain skips.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	if maxPerMinute <= 0 {
		return nil
	}
	retryAfter := strconv.Itoa(int(60.0/float64(maxPerMinute)) + 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := ctxutil.ClientIPFromCtx(r.Context())
			if !ok {
				key = remoteIP(r.RemoteAddr)
			}

			if !rl.getBucket(key, maxPerMinute).allow() {
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"}) //nolint:errcheck
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) getBucket(key string, maxPerMinute int) *bucket {
	if val, ok := rl.buckets.Load(key); ok {
		return val.(*bucket)
	}

	// A full minute's worth of requests may arrive as one burst.
	val, _ := rl.buckets.LoadOrStore(key, &bucket{
		limiter:  rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), maxPerMinute),
		lastSeen: time.Now(),
	})
	return val.(*bucket)
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	b.lastSeen = time.Now()
	b.mu.Unlock()
	return b.limiter.Allow()
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.buckets.Range(func(key, value any) bool {
				b := value.(*bucket)
				b.mu.Lock()
				idle := now.Sub(b.lastSeen)
				b.mu.Unlock()
				if idle > idleBucketTTL {
					rl.buckets.Delete(key)
				}
				return true
			})
		}
	}
}
