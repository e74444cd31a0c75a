// Package http exposes the JSON API: the dashboard read model plus CRUD
// for payments and expense definitions. Handlers resolve "now" once per
// request and hand the core explicit snapshots.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"billtrack/internal/cache"
	"billtrack/internal/core"
	"billtrack/internal/log"
	"billtrack/internal/services"
)

type Server struct {
	http.Server

	snapshots *services.SnapshotService
	payments  *services.PaymentService
	registry  *services.RegistryService

	sched   core.PaySchedule
	accrual core.AccrualAnchor

	dashCache   *cache.LRU[dashboardResponse]
	rateLimiter *rateLimiter
	logger      *log.Logger

	now func() time.Time

	shutdownOnce sync.Once
}

type Options struct {
	Addr         string
	Schedule     core.PaySchedule
	Accrual      core.AccrualAnchor
	CacheTTL     time.Duration
	CacheEntries int
}

func NewServer(opts Options, snapshots *services.SnapshotService, payments *services.PaymentService, registry *services.RegistryService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	entries := opts.CacheEntries
	if entries <= 0 {
		entries = 128
	}

	s := &Server{
		Server:      http.Server{Addr: opts.Addr, Handler: mux},
		snapshots:   snapshots,
		payments:    payments,
		registry:    registry,
		sched:       opts.Schedule,
		accrual:     opts.Accrual,
		dashCache:   cache.New[dashboardResponse](entries, ttl),
		rateLimiter: newRateLimiter(),
		logger:      logger.WithComponent("http"),
		now:         time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleHealth)

	mux.HandleFunc("GET /api/dashboard", s.with(s.handleDashboard))

	mux.HandleFunc("GET /api/payments", s.with(s.handleListPayments))
	mux.HandleFunc("POST /api/payments", s.with(s.handleCreatePayment))
	mux.HandleFunc("POST /api/payments/bulk", s.with(s.handleCreatePaymentsBulk))
	mux.HandleFunc("PUT /api/payments/{id}", s.with(s.handleUpdatePayment))
	mux.HandleFunc("DELETE /api/payments/{id}", s.with(s.handleDeletePayment))
	mux.HandleFunc("GET /api/payments/export", s.with(s.handleExportPayments))

	mux.HandleFunc("GET /api/expenses", s.with(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.with(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.with(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.with(s.handleDeleteExpense))

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// userID resolves the caller's identity: an opaque value from the
// X-User-ID header or the user query parameter. Empty means the shared
// default store. Resolution happens upstream; this is never validated.
func userID(r *http.Request) string {
	if v := r.Header.Get("X-User-ID"); v != "" {
		return v
	}
	return r.URL.Query().Get("user")
}

// with wraps a handler with request-ID tracing, security headers, rate
// limiting on writes, and request logging.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// rateLimiter allows 60 write requests per client per minute.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.runCleanup()
	return rl
}

func (rl *rateLimiter) runCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for ip, client := range rl.clients {
				if client.lastRequest.Before(cutoff) {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}
	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps core sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrMalformedDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrDuplicateName),
		errors.Is(err, core.ErrDuplicateID),
		errors.Is(err, core.ErrExceedsGoalBalance),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidDueDay),
		errors.Is(err, core.ErrMissingDueDate),
		errors.Is(err, core.ErrInvalidTotalPayments),
		errors.Is(err, core.ErrInvalidVariant):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
