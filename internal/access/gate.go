package access

import (
	"context"
	"net/http"
	"strings"
)

const (
	LoginPath      = "/login"
	GetStartedPath = "/get-started"
)

// Verdict is the outcome of one Evaluate call. Redirect is set whenever
// Allow is false.
type Verdict struct {
	Allow    bool
	Redirect string
}

func allow() Verdict { return Verdict{Allow: true} }

func redirect(to string) Verdict { return Verdict{Redirect: to} }

type Gate struct {
	exact    map[string]bool
	prefixes []string
	roles    map[string]Role
}

// NewGate builds the gate with the application's public routes.
func NewGate() *Gate {
	return &Gate{
		exact: map[string]bool{
			"/":                    true,
			GetStartedPath:         true,
			"/metrics":             true,
			"/notifications/email": true,
		},
		prefixes: []string{LoginPath, "/register", "/health/"},
		roles: map[string]Role{
			"/admin":   RoleAdmin,
			"/doctor":  RoleDoctor,
			"/patient": RolePatient,
		},
	}
}

func (g *Gate) public(path string) bool {
	if g.exact[path] {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// requiredRole returns the role owning path's first segment, if any.
// "/doctors" is not under "/doctor".
func (g *Gate) requiredRole(path string) (Role, bool) {
	for prefix, role := range g.roles {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return role, true
		}
	}
	return "", false
}

// Evaluate applies, in order: public routes pass, anonymous callers go to
// sign-in, role-owned routes require that role, and callers without a role
// are sent to role selection.
func (g *Gate) Evaluate(path string, id Identity, authenticated bool) Verdict {
	if g.public(path) {
		return allow()
	}
	if !authenticated {
		return redirect(LoginPath)
	}
	if want, ok := g.requiredRole(path); ok && id.Role != want {
		return redirect(GetStartedPath)
	}
	if id.Role == "" {
		return redirect(GetStartedPath)
	}
	return allow()
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity Middleware stored for the request.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Middleware resolves the caller, evaluates the gate and either redirects
// with 302 or calls next with the identity in the request context.
func (g *Gate) Middleware(provider IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, authenticated := provider.CurrentIdentity(r)

			v := g.Evaluate(r.URL.Path, id, authenticated)
			if !v.Allow {
				http.Redirect(w, r, v.Redirect, http.StatusFound)
				return
			}

			if authenticated {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
