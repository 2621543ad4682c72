package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/auth"
)

type SessionParser interface {
	FromRequest(r *http.Request) (auth.Claims, error)
}

type SubscriptionChecker interface {
	IsActive(ctx context.Context, companyID string) bool
}

// Gate guards dashboard routes: a session is always required and, unless
// skipSubscription is set, an active subscription too.
type Gate struct {
	Sessions SessionParser
	Subs     SubscriptionChecker
	Log      zerolog.Logger
}

func NewGate(sessions SessionParser, subs SubscriptionChecker, log zerolog.Logger) *Gate {
	return &Gate{Sessions: sessions, Subs: subs, Log: log}
}

// RequireSubscription applies every redirect rule.
func (g *Gate) RequireSubscription(next http.Handler) http.Handler {
	return g.guard(next, true)
}

// RequireSession only checks authentication (billing, checkout).
func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return g.guard(next, false)
}

func (g *Gate) guard(next http.Handler, checkSubscription bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.Sessions.FromRequest(r)
		authenticated := err == nil && claims.CompanyID != ""

		active := true
		if authenticated && (checkSubscription || r.URL.Path == entity.PathBilling) {
			active = g.Subs.IsActive(r.Context(), claims.CompanyID)
		}

		d := entity.DecideAccess(r.URL.Path, authenticated, active)
		if !d.Allow {
			if wantsHTML(r) {
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
				return
			}
			// JSON callers only get the error statuses; the active-on-billing
			// redirect is a browser nicety.
			if d.Status != 0 {
				denyJSON(w, d.Status)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func denyJSON(w http.ResponseWriter, status int) {
	code, msg := "UNAUTHENTICATED", "login required"
	if status == http.StatusPaymentRequired {
		code, msg = "PAYMENT_REQUIRED", "an active subscription is required"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
