package domain

import "context"

type principalKey struct{}

// ContextPrincipal carries the authenticated identity through request context.
// It is populated from verified token claims only; group membership is never
// stored here.
type ContextPrincipal struct {
	Username string
	DN       string
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}

// ActorFromContext returns the username of the authenticated caller, or
// "unknown" when the request carries no principal.
func ActorFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok && p.Username != "" {
		return p.Username
	}
	return "unknown"
}
