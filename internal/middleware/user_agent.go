package middleware

import (
	"net/http"
	"strings"

	"github.com/aashari/go-selection-relay/internal/errors"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/utils"
)

// openPaths bypass the user agent filter
var openPaths = []string{
	"/health",
	"/metrics",
	"/swagger",
	"/debug/pprof/",
}

// UserAgentFilterMiddleware only lets agent clients (User-Agent starting with
// utils.UserAgentPrefix) reach the relay endpoints. Health, metrics, swagger
// and pprof stay open.
func UserAgentFilterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, path := range openPaths {
			if strings.HasPrefix(r.URL.Path, path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		userAgent := r.Header.Get(utils.HeaderUserAgent)
		if !strings.HasPrefix(userAgent, utils.UserAgentPrefix) {
			ctx := logger.WithComponent(r.Context(), "UserAgentMiddleware")
			logger.WarnCtx(ctx, "Request blocked by User-Agent filter",
				"request_method", r.Method,
				"request_path", r.URL.Path,
				"request_user_agent", userAgent,
			)
			errors.HandleError(w, errors.NewAuthorizationError("Access denied: Invalid User-Agent"), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
