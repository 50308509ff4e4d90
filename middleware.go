package loankit

import (
	"errors"
	"net/http"
)

// Middleware provides HTTP middleware for the authorization gate and for
// translating the package's error kinds to status codes.
type Middleware struct {
	service      *Service
	getPrincipal func(*http.Request) Principal
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := loankit.NewMiddleware(service,
//	    loankit.WithPrincipalExtractor(func(r *http.Request) loankit.Principal {
//	        return principalFromBearer(r) // your identity collaborator
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getPrincipal: defaultGetPrincipal,
		errorHandler: WriteError,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithPrincipalExtractor sets a custom function to extract the principal
// from a request. The default reads it from the request context.
func WithPrincipalExtractor(fn func(*http.Request) Principal) MiddlewareOption {
	return func(m *Middleware) {
		m.getPrincipal = fn
	}
}

// WithMiddlewareErrorHandler sets a custom error handler for middleware.
func WithMiddlewareErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetPrincipal(r *http.Request) Principal {
	return GetPrincipal(r.Context())
}

// WriteError translates an error kind into an HTTP status code and
// writes it: NotFound→404, Conflict and InvariantViolation→409,
// Unavailable→400, Forbidden and missing principal→403.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsNotFound(err):
		http.Error(w, "Not Found", http.StatusNotFound)
	case IsConflict(err), IsInvariantViolation(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case IsUnavailable(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case IsForbidden(err), errors.Is(err, ErrNoPrincipal):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// RequirePrincipal creates middleware that rejects requests carrying no
// principal and stores the extracted principal in the request context
// for the handler and the service operations it calls.
func (m *Middleware) RequirePrincipal() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := m.getPrincipal(r)
			if p.IsZero() {
				m.errorHandler(w, r, NewError(ErrNoPrincipal, "authentication required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole creates middleware that requires the principal's role to
// be in the allowed set.
//
// Example:
//
//	router.With(mw.RequireRole(loankit.RoleAdmin, loankit.RoleLibrarian)).
//	    Post("/loans", checkoutHandler)
func (m *Middleware) RequireRole(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := m.getPrincipal(r)
			if p.IsZero() {
				m.errorHandler(w, r, NewError(ErrNoPrincipal, "authentication required"))
				return
			}

			if !Authorize(p, allowed...) {
				m.errorHandler(w, r, NewError(ErrForbidden, "missing required role").
					WithActor(p.UserID))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireSelfOrAdmin creates middleware for user-record mutation routes:
// the principal must be an admin or match the user ID produced by the
// extractor (typically a path parameter).
//
// Example:
//
//	router.With(mw.RequireSelfOrAdmin(func(r *http.Request) string {
//	    return r.PathValue("userID")
//	})).Patch("/users/{userID}", updateUserHandler)
func (m *Middleware) RequireSelfOrAdmin(userID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := m.getPrincipal(r)
			if p.IsZero() {
				m.errorHandler(w, r, NewError(ErrNoPrincipal, "authentication required"))
				return
			}

			if !CanModifyUser(p, userID(r)) {
				m.errorHandler(w, r, NewError(ErrForbidden, "self-or-admin required").
					WithActor(p.UserID))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
