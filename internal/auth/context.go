package auth

import "context"

type staffKey struct{}

// WithIdentity attaches the authenticated staff member to ctx.
func WithIdentity(ctx context.Context, role Role, subject, name string) context.Context {
	return context.WithValue(ctx, staffKey{}, Staff{Subject: subject, Name: name, Role: role})
}

// StaffFromContext returns the staff member set by the middleware.
func StaffFromContext(ctx context.Context) (Staff, bool) {
	if ctx == nil {
		return Staff{}, false
	}
	staff, ok := ctx.Value(staffKey{}).(Staff)
	return staff, ok
}

// RoleFromContext is the caller's role, or "" for anonymous requests.
func RoleFromContext(ctx context.Context) Role {
	staff, _ := StaffFromContext(ctx)
	return staff.Role
}

// SubjectFromContext is the caller's staff id.
func SubjectFromContext(ctx context.Context) string {
	staff, _ := StaffFromContext(ctx)
	return staff.Subject
}

// NameFromContext is the caller's display name.
func NameFromContext(ctx context.Context) string {
	staff, _ := StaffFromContext(ctx)
	return staff.Name
}
