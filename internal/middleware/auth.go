package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/payroll/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ActorIDKey is the context key for storing the authenticated actor ID.
const ActorIDKey contextKey = "actor_id"

// GetActorID extracts the actor ID from the context.
// Returns empty string if not found.
func GetActorID(ctx context.Context) string {
	actorID, _ := ctx.Value(ActorIDKey).(string)
	return actorID
}

// WithActorID returns a copy of ctx carrying actorID.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorIDKey, actorID)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// authenticate validates the request's bearer token. A missing header yields
// auth.ErrMissingToken.
func authenticate(ctx context.Context, jwtManager *auth.JWTManager, req connect.AnyRequest) (context.Context, error) {
	authHeader := req.Header().Get("Authorization")
	if authHeader == "" {
		return ctx, auth.ErrMissingToken
	}

	tokenString, ok := bearerToken(authHeader)
	if !ok {
		return ctx, auth.ErrInvalidToken
	}

	claims, err := jwtManager.Validate(tokenString)
	if err != nil {
		return ctx, err
	}
	return WithActorID(ctx, claims.ActorID), nil
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the actor ID to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx, err := authenticate(ctx, jwtManager, req)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(ctx, req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			// Ignore errors - optional auth
			if authed, err := authenticate(ctx, jwtManager, req); err == nil {
				ctx = authed
			}
			return next(ctx, req)
		}
	}
}

// AuthByProcedure applies OptionalAuth to the listed read-only procedures and
// RequireAuth to everything else.
func AuthByProcedure(jwtManager *auth.JWTManager, readOnly ...string) connect.UnaryInterceptorFunc {
	reads := make(map[string]bool, len(readOnly))
	for _, p := range readOnly {
		reads[p] = true
	}
	optional := OptionalAuth(jwtManager)
	required := RequireAuth(jwtManager)

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		optionalNext := optional(next)
		requiredNext := required(next)
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if reads[req.Spec().Procedure] {
				return optionalNext(ctx, req)
			}
			return requiredNext(ctx, req)
		}
	}
}
