package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/httputil"
	"sanad/pkg/requestcontext"
)

// TokenValidator verifies bearer tokens. Implemented by JWTService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// ActorDirectory resolves a token subject to its current actor shape.
// Implemented by the registry service.
type ActorDirectory interface {
	ResolveActor(ctx context.Context, id string) (domain.Actor, error)
}

// RequireActor authenticates the request and injects the resolved actor
// into the context. Inactive actors still pass through; the authorization
// engine is the single place that refuses them, so the failure surfaces as
// Forbidden rather than a misleading 401.
func RequireActor(tokens TokenValidator, directory ActorDirectory, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			raw, err := bearerToken(r)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			claims, err := tokens.ValidateToken(raw)
			if err != nil {
				logger.WarnContext(ctx, "token rejected",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			actor, err := directory.ResolveActor(ctx, claims.Subject)
			if err != nil {
				logger.WarnContext(ctx, "actor resolution failed",
					"request_id", requestID,
					"subject", claims.Subject,
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "malformed authorization header")
	}
	return token, nil
}
