// Package api implements the inkgraph REST API using chi.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/starford/inkgraph/internal/fingerprint"
)

// VisitorCookie describes the cookie carrying the durable visitor token.
type VisitorCookie struct {
	Name   string
	MaxAge int
	Secure bool
}

type identityKey struct{}

// identityFrom returns the identity stored by Visitor.
func identityFrom(ctx context.Context) fingerprint.Identity {
	id, _ := ctx.Value(identityKey{}).(fingerprint.Identity)
	return id
}

// Visitor derives the request fingerprint from the visitor cookie and the
// client address, minting and setting the cookie when it is missing.
func Visitor(d *fingerprint.Deriver, cookie VisitorCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookie.Name); err == nil {
				token = c.Value
			}
			id := d.Derive(token, r)
			if id.Minted {
				http.SetCookie(w, &http.Cookie{
					Name:     cookie.Name,
					Value:    id.VisitorID,
					Path:     "/",
					MaxAge:   cookie.MaxAge,
					HttpOnly: true,
					Secure:   cookie.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
		})
	}
}

// SameOrigin rejects requests whose Origin header names another origin.
// Requests without an Origin header pass. When publicOrigin is empty the
// origin is taken from the request itself.
func SameOrigin(publicOrigin string) func(http.Handler) http.Handler {
	publicOrigin = strings.TrimRight(publicOrigin, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			want := publicOrigin
			if want == "" {
				want = requestOrigin(r)
			}
			if !strings.EqualFold(strings.TrimRight(origin, "/"), want) {
				writeJSON(w, http.StatusForbidden, errorBody("invalid origin"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return (&url.URL{Scheme: scheme, Host: r.Host}).String()
}
