package auth

import "context"

type adminIDKey struct{}

// ContextWithAdminID returns a copy of ctx carrying the authenticated admin id.
func ContextWithAdminID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, adminIDKey{}, id)
}

// AdminIDFromContext returns the admin id attached by the auth gate.
func AdminIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(adminIDKey{}).(string)
	return id, ok && id != ""
}
