package devserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"golang.org/x/time/rate"
)

type ctxKey int

const userIDKey ctxKey = iota

func userIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// requireAuth rejects requests without a valid bearer access token.
func requireAuth(users *UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeader)
			token, ok := strings.CutPrefix(header, common.BearerPrefix)
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			userID, err := users.Authenticate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per client IP. Stale entries are evicted
// lazily on access.
type visitors struct {
	mu    sync.Mutex
	byIP  map[string]*visitor
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time
}

func newVisitors(rps float64, burst int) *visitors {
	return &visitors{
		byIP:  map[string]*visitor{},
		limit: rate.Limit(rps),
		burst: burst,
		ttl:   3 * time.Minute,
		now:   time.Now,
	}
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	for k, vis := range v.byIP {
		if now.Sub(vis.lastSeen) > v.ttl {
			delete(v.byIP, k)
		}
	}

	vis, ok := v.byIP[ip]
	if !ok {
		vis = &visitor{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.byIP[ip] = vis
	}
	vis.lastSeen = now
	return vis.limiter
}

// rateLimit answers 429 once a client IP exceeds rps with the given burst.
// A non-positive rps disables limiting.
func rateLimit(rps float64, burst int, logger logging.Logger) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newVisitors(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !store.get(ip).Allow() {
				logger.Warn(r.Context(), "rate limit exceeded", "ip", ip, "path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestLog logs one line per request with the client's request id.
func requestLog(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"request_id", r.Header.Get(common.RequestIDHeader),
				"duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
