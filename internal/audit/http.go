package audit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"sensei-backoffice/internal/auth"
)

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// FromRequest records an action by the staff member authenticated on r.
// Anonymous requests and a nil logger are ignored; write failures never
// fail the request.
func FromRequest(logger Logger, r *http.Request, action, resourceType, resourceID string, meta map[string]any) {
	if logger == nil || r == nil {
		return
	}
	staff, ok := auth.StaffFromContext(r.Context())
	if !ok || staff.Subject == "" {
		return
	}
	entry := Entry{
		Actor:        staff.Subject,
		ActorName:    staff.Name,
		Role:         string(staff.Role),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           ClientIP(r),
		UserAgent:    r.UserAgent(),
	}
	if len(meta) > 0 {
		entry.Metadata, _ = json.Marshal(meta)
	}
	_ = logger.Log(r.Context(), entry)
}
