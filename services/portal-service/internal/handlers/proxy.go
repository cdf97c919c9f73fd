package handlers

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"

	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/routes"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const BackendPrefix = "/api/v1/backend"

// NewBackendProxy relays /api/v1/backend/<path> to <target>/<path> for the
// paths in the API permission table, with the session's bearer token
// attached. A 401 from upstream ends the session.
func (p *Portal) NewBackendProxy(target *url.URL) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rel, _ := backendPath(pr.In)
			pr.Out.URL.Path = rel
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Cookie")
			if s := sessionFrom(pr.In.Context()); s != nil {
				pr.Out.Header.Set("Authorization", "Bearer "+s.Token())
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			if resp.StatusCode != http.StatusUnauthorized {
				return nil
			}
			if s := sessionFrom(resp.Request.Context()); s != nil {
				s.Invalidate(resp.Request.Context(), "backend returned 401")
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.logger.Error("backend proxy failed", "err", err, "path", r.URL.Path)
			http.Error(w, "backend unavailable", http.StatusBadGateway)
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return p.requireSession(p.requireAPIRole(proxy))
}

func (p *Portal) requireAPIRole(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel, ok := backendPath(r)
		if !ok {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}
		id, _ := sessionFrom(r.Context()).Identity()
		known, allowed := routes.AllowAPI(rel, id)
		if !known {
			http.NotFound(w, r)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// backendPath is the upstream path for a proxied request. Dot segments and
// encoded slashes are refused whether or not they arrived percent-encoded,
// so the path checked against the permission table is the path forwarded.
func backendPath(r *http.Request) (string, bool) {
	rel := strings.TrimPrefix(r.URL.Path, BackendPrefix)
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}
	if raw := r.URL.RawPath; raw != "" {
		decoded, err := url.PathUnescape(raw)
		if err != nil || decoded != r.URL.Path || strings.Contains(strings.ToLower(raw), "%2f") {
			return "", false
		}
	}
	if rel == "" {
		return "/", true
	}
	clean := path.Clean(rel)
	if strings.HasSuffix(rel, "/") && clean != "/" {
		clean += "/"
	}
	return clean, true
}

func RegisterProxy(mux *http.ServeMux, h http.Handler) {
	mux.Handle(BackendPrefix, h)
	mux.Handle(BackendPrefix+"/", h)
}
