package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to the caller behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*usecase.Principal, error)
}

// AuthSession validates the bearer session token and stores the caller and
// the token in the request context.
func AuthSession(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.ResponseUnauthorized(w, "Missing or malformed token. Use: Bearer <token>")
				return
			}

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				appErr := utils.AsAppError(err)
				if appErr.Code == utils.CodeInternal {
					logger.Error("Failed to validate session", zap.Error(err))
				}
				utils.ResponseError(w, appErr)
				return
			}

			role := string(principal.Role)
			if principal.IsAdmin {
				role = "admin"
			}

			ctx := utils.SetUserContext(r.Context(), principal.UserID, role)
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin rejects callers without admin rights. It must run after AuthSession.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !utils.IsAdminContext(r.Context()) {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
