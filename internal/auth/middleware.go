package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/fitness-hub/internal/userctx"
	log "github.com/sirupsen/logrus"
)

// eventsPath may pass the token as ?access_token= since EventSource cannot set headers.
const eventsPath = "/v1/events"

var publicPaths = map[string]bool{
	"/healthz":        true,
	"/metrics":        true,
	"/v1/auth/signup": true,
	"/v1/auth/signin": true,
}

// Middleware protects every non-public route with a bearer token.
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := tokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		claims, err := m.service.Verify(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				log.WithError(err).Error("token verification failed")
				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		ctx := userctx.WithUserID(r.Context(), claims.UserID)
		ctx = userctx.WithTokenID(ctx, claims.TokenID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isPublicPath(path string) bool {
	return publicPaths[strings.TrimRight(path, "/")]
}

func tokenFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if r.Method == http.MethodGet && r.URL.Path == eventsPath {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
