package entity

import "strings"

const (
	PathLogin     = "/login"
	PathBilling   = "/billing"
	PathDashboard = "/"
)

// AccessDecision is what the gate does with a dashboard request.
type AccessDecision struct {
	Allow    bool
	Redirect string
	// Status is used instead of Redirect for JSON callers.
	Status int
}

// IsBillingPath covers the pages a company without a subscription may
// still reach to pay.
func IsBillingPath(path string) bool {
	return path == PathBilling ||
		strings.HasPrefix(path, PathBilling+"/") ||
		strings.HasPrefix(path, "/api/paymob/")
}

// DecideAccess applies the redirect rules of the dashboard.
func DecideAccess(path string, authenticated, active bool) AccessDecision {
	if !authenticated {
		return AccessDecision{Redirect: PathLogin, Status: 401}
	}
	if !active && !IsBillingPath(path) {
		return AccessDecision{Redirect: PathBilling, Status: 402}
	}
	if active && path == PathBilling {
		return AccessDecision{Redirect: PathDashboard, Status: 0}
	}
	return AccessDecision{Allow: true}
}
