package authz

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the acting principal in context after the
// middleware has authorized it.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the acting principal, nil when absent.
func PrincipalFromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}
