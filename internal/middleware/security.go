package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/AnshRaj112/mindnest-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// limiterSet keeps one token bucket per key and forgets idle keys.
type limiterSet struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*limiterEntry
	once    sync.Once
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{limit: limit, burst: burst, ttl: 30 * time.Minute, entries: map[string]*limiterEntry{}}
}

func (s *limiterSet) allow(key string) bool {
	s.once.Do(func() { go s.cleanup(5 * time.Minute) })

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastUse = time.Now()
	return e.limiter.Allow()
}

func (s *limiterSet) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for k, e := range s.entries {
			if now.Sub(e.lastUse) > s.ttl {
				delete(s.entries, k)
			}
		}
		s.mu.Unlock()
	}
}

var (
	// 5 req/s per IP, burst 20.
	globalLimiters = newLimiterSet(rate.Limit(5), 20)
	// 1 req/5s per IP, burst 5.
	loginLimiters = newLimiterSet(rate.Every(5*time.Second), 5)
	// 20 messages/min per user, burst 10.
	chatbotLimiters = newLimiterSet(rate.Every(3*time.Second), 10)
)

var loginPaths = map[string]bool{
	"/api/auth/login":  true,
	"/api/auth/signup": true,
}

// GlobalRateLimit limits each IP in process memory. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalLimiters.allow(clientip.LimiterKey(r)) {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRateLimit applies a stricter limit to the login and signup routes only.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && loginPaths[r.URL.Path] {
			if !loginLimiters.allow(clientip.LimiterKey(r)) {
				writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ChatbotRateLimitMessage is returned when a user exceeds the chatbot limit.
const ChatbotRateLimitMessage = "You're sending messages too quickly. Please wait a moment."

// ChatbotRateLimit limits chatbot messages per authenticated user, or per IP
// when no claims are present. Use after Authenticate.
func ChatbotRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientip.LimiterKey(r)
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			key = "user:" + claims.UserID
		}
		if !chatbotLimiters.allow(key) {
			writeError(w, http.StatusTooManyRequests, ChatbotRateLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AllowChatbotMessage takes one message from userID's chatbot bucket, the
// same bucket ChatbotRateLimit uses.
func AllowChatbotMessage(userID string) bool {
	return chatbotLimiters.allow("user:" + userID)
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		GlobalRateLimit,
		LoginRateLimit,
	}
}
