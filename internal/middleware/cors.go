package middleware

import (
	"net/http"
	"strings"

	"github.com/aashari/go-selection-relay/internal/utils"
)

// SettingsPath is kept same-origin: it manages the stored API key and the
// service URL, so no cross-origin page may read or change it.
const SettingsPath = "/v1/settings"

// CORSMiddleware adds CORS headers so browser based agents can reach the relay
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, SettingsPath) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set(utils.HeaderAccessControlAllowOrigin, utils.CORSAllowOriginAll)
		w.Header().Set(utils.HeaderAccessControlAllowMethods, utils.CORSAllowMethodsAll)
		w.Header().Set(utils.HeaderAccessControlAllowHeaders, utils.CORSAllowHeadersStd)
		w.Header().Set(utils.HeaderAccessControlExposeHeaders, utils.CORSExposeHeadersStd)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
