package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy defines the CORS headers to emit for matching origins.
// The portal SPA authenticates with a cookie, so a wildcard origin is
// echoed back verbatim when credentials are allowed.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// WithCORS is a no-op when AllowedOrigins is empty.
func WithCORS(cfg CORSPolicy) Middleware {
	origins := map[string]struct{}{}
	wildcard := false
	for _, o := range cfg.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			origins[o] = struct{}{}
		}
	}
	if len(origins) == 0 && !wildcard {
		return func(next http.Handler) http.Handler { return next }
	}

	static := http.Header{}
	if cfg.AllowCredentials {
		static.Set("Access-Control-Allow-Credentials", "true")
	}
	if methods := joinTrimmed(cfg.AllowedMethods); methods != "" {
		static.Set("Access-Control-Allow-Methods", methods)
	}
	if headers := joinTrimmed(cfg.AllowedHeaders); headers != "" {
		static.Set("Access-Control-Allow-Headers", headers)
	}
	if secs := int(cfg.MaxAge.Seconds()); secs > 0 {
		static.Set("Access-Control-Max-Age", strconv.Itoa(secs))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, listed := origins[strings.ToLower(origin)]
			if origin == "" || (!listed && !wildcard) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			switch {
			case listed || cfg.AllowCredentials:
				h.Set("Access-Control-Allow-Origin", origin)
			default:
				h.Set("Access-Control-Allow-Origin", "*")
			}
			for k, v := range static {
				h[k] = v
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func joinTrimmed(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}
