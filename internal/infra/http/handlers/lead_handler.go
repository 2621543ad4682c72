package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// CredentialHeader carries the company api key on lead intake.
const CredentialHeader = "X-Incoming-Token"

type LeadSubmitter interface {
	Execute(ctx context.Context, input usecase.SubmitLeadInput) (*usecase.SubmitLeadOutput, error)
}

type LeadHandler struct {
	SubmitLead  LeadSubmitter
	rateLimiter *RateLimiter
}

// NewLeadHandler allows limit requests per client IP per minute; 0 disables
// the limit.
func NewLeadHandler(uc LeadSubmitter, limit int) *LeadHandler {
	h := &LeadHandler{SubmitLead: uc}
	if limit > 0 {
		h.rateLimiter = NewRateLimiter(limit, time.Minute)
	}
	return h
}

func (h *LeadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.rateLimiter != nil && !h.rateLimiter.Allow(getClientIP(r)) {
		writeErrorCode(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again later")
		return
	}

	var payload map[string]any
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload == nil {
		writeErrorCode(w, http.StatusBadRequest, usecase.CodeValidation, "lead payload must be a JSON object")
		return
	}

	out, err := h.SubmitLead.Execute(r.Context(), usecase.SubmitLeadInput{
		Credential: r.Header.Get(CredentialHeader),
		Payload:    payload,
	})
	if err != nil {
		var de *usecase.DomainError
		if errors.As(err, &de) && de.Code == usecase.CodeNoAgents {
			middleware.RecordLead("received")
		}
		writeError(w, r, err)
		return
	}

	middleware.RecordLead(out.Status)
	writeJSON(w, http.StatusOK, out)
}

// getClientIP prefers the first X-Forwarded-For hop.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
