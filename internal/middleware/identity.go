// Package middleware provides HTTP middleware for identity resolution and
// request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tabsplit/tabsplit/internal/auth"
	"github.com/tabsplit/tabsplit/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityKey is the context key for the resolved caller identity.
	identityKey contextKey = "identity"
)

// GetIdentity extracts the caller identity from the context. The zero
// Identity means the caller provided neither a valid token nor a device id.
func GetIdentity(ctx context.Context) models.Identity {
	id, _ := ctx.Value(identityKey).(models.Identity)
	return id
}

// ResolveIdentity returns middleware that normalizes platform identity into
// the derived form the core uses: a valid Bearer token yields an
// authenticated user identity, otherwise the X-Device-ID header yields a
// guest identity. Invalid tokens are ignored rather than rejected; every
// endpoint that needs identity checks for the zero value itself, and a guest
// device id may still be present.
func ResolveIdentity(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id models.Identity

			if header := r.Header.Get("Authorization"); header != "" {
				parts := strings.Split(header, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					if claims, err := jwtManager.Validate(parts[1]); err == nil {
						id.UserID = claims.UserID
					}
				}
			}
			if id.UserID == "" {
				id.DeviceID = strings.TrimSpace(r.Header.Get("X-Device-ID"))
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
