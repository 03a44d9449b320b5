package auth

import (
	"net/http"
	"strings"
)

// rule grants access to a path (exact) or a path prefix. read applies to
// GET/HEAD/OPTIONS, write to everything else.
type rule struct {
	path  string
	exact bool
	read  Role
	write Role
}

func (r rule) matches(path string) bool {
	if r.exact {
		return path == r.path
	}
	return strings.HasPrefix(path, r.path)
}

// backofficeRules are evaluated in order; the first match wins.
var backofficeRules = []rule{
	{path: "/api/v1/finance/payroll", read: RoleSecretary, write: RoleAdmin},
	{path: "/api/v1/finance/fixed-expenses", read: RoleSecretary, write: RoleAdmin},
	{path: "/api/v1/finance/", read: RoleSecretary, write: RoleSecretary},
	{path: "/api/v1/billing/", read: RoleSecretary, write: RoleSecretary},
	{path: "/api/v1/whatsapp/", read: RoleAdmin, write: RoleAdmin},
	{path: "/api/v1/pos/", read: RoleSecretary, write: RoleSecretary},
	{path: "/api/v1/academy/gym", exact: true, read: RoleProfessor, write: RoleAdmin},
	{path: "/api/v1/academy/attendance", read: RoleProfessor, write: RoleProfessor},
	{path: "/api/v1/academy/sessions", read: RoleProfessor, write: RoleProfessor},
	{path: "/api/v1/academy/graduations", read: RoleProfessor, write: RoleProfessor},
	{path: "/api/v1/academy/professors", read: RoleSecretary, write: RoleAdmin},
	{path: "/api/v1/dashboard", exact: true, read: RoleProfessor, write: RoleProfessor},
	{path: "/api/v1/exports/ledger.csv", exact: true, read: RoleSecretary, write: RoleSecretary},
	// Remaining API routes: professors may read, secretaries may change.
	{path: "/api/", read: RoleProfessor, write: RoleSecretary},
}

// Policy maps requests to the role they require.
type Policy struct {
	exempt         map[string]struct{}
	exemptPrefixes []string
	rules          []rule
}

// NewDefaultPolicy builds the back-office policy. exemptPaths and
// exemptPrefixes bypass authentication entirely.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		exempt[path] = struct{}{}
	}
	return Policy{exempt: exempt, exemptPrefixes: exemptPrefixes, rules: backofficeRules}
}

// IsExempt reports whether r skips authentication.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.exempt[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.exemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole returns the minimum role for r. ok is false for paths outside
// the API, which are served without a token.
func (p Policy) RequiredRole(r *http.Request) (role Role, ok bool) {
	if r == nil {
		return "", false
	}
	for _, rl := range p.rules {
		if !rl.matches(r.URL.Path) {
			continue
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return rl.read, true
		}
		return rl.write, true
	}
	return "", false
}
