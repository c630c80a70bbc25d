package middleware

import (
	"net/http"
	"strings"
)

// NewCORS allows the listed browser origins. A single "*" allows any origin
// but then credentials are not advertised.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
			continue
		case "*":
			allowAny = true
		default:
			allowed[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, listed := allowed[origin]
				if listed || allowAny {
					headers := w.Header()
					headers.Add("Vary", "Origin")
					headers.Set("Access-Control-Allow-Origin", origin)
					headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
					headers.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-Request-Id")
					headers.Set("Access-Control-Expose-Headers", "X-Request-Id,Retry-After")
					headers.Set("Access-Control-Max-Age", "86400")
					if listed {
						headers.Set("Access-Control-Allow-Credentials", "true")
					}
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
