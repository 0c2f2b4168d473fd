package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-docfill/pkg/session"
)

// Headers set by the upstream auth proxy.
const (
	HeaderAuthenticated = "X-Docfill-Authenticated"
	HeaderAdmin         = "X-Docfill-Admin"
	HeaderCanGenerate   = "X-Docfill-Can-Generate"
	HeaderUser          = "X-Docfill-User"
)

// AnonymousOwner owns drafts of requests without a user header.
const AnonymousOwner = "anonymous"

// HeaderCapabilities reads capabilities from the auth proxy headers.
// Missing or malformed headers read as false.
func HeaderCapabilities(r *http.Request) session.Capabilities {
	return session.Capabilities{
		Authenticated: headerBool(r, HeaderAuthenticated),
		Admin:         headerBool(r, HeaderAdmin),
		CanGenerate:   headerBool(r, HeaderCanGenerate),
	}
}

// HeaderOwner returns the user header or AnonymousOwner.
func HeaderOwner(r *http.Request) string {
	if user := strings.TrimSpace(r.Header.Get(HeaderUser)); user != "" {
		return user
	}
	return AnonymousOwner
}

func headerBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.Header.Get(name)))
	return err == nil && v
}

var (
	errUnauthenticated = StatusError{Code: http.StatusUnauthorized, Err: errors.New("authentication required")}
	errNotAdmin        = StatusError{Code: http.StatusForbidden, Err: errors.New("admin capability required")}
)

// RequireAuthenticated rejects anonymous callers with 401.
func RequireAuthenticated(caps CapabilitiesFunc) GuardFunc {
	return func(r *http.Request) error {
		if !caps(r).Authenticated {
			return errUnauthenticated
		}
		return nil
	}
}

// RequireAdmin rejects anonymous callers with 401 and non admins with 403.
func RequireAdmin(caps CapabilitiesFunc) GuardFunc {
	return func(r *http.Request) error {
		c := caps(r)
		if !c.Authenticated {
			return errUnauthenticated
		}
		if !c.Admin {
			return errNotAdmin
		}
		return nil
	}
}

func guarded(guard GuardFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard != nil {
				if err := guard(r); err != nil {
					writeGuardError(w, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
