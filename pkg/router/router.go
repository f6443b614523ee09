package router

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// --- ANSI color codes for the access log ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router is a small method+path router with wildcard segments ("*") and prefix
// mounts for sub-handlers like the swagger UI. Every request is access-logged.
type Router struct {
	routes   map[string]HandlerFunc // key = METHOD:PATH
	paths    map[string]bool
	patterns []string                // wildcard patterns, in registration order
	mounts   map[string]http.Handler // prefix -> handler
}

func New() *Router {
	return &Router{
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
		mounts: make(map[string]http.Handler),
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	r.dispatch(lrw, req)

	log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor(req.Method), req.Method, colorReset,
		req.URL.Path,
		statusColor(lrw.statusCode), lrw.statusCode, colorReset,
		colorBlue, time.Since(start), colorReset,
	)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	// Mounted sub-handlers win on prefix match.
	for prefix, h := range r.mounts {
		if strings.HasPrefix(req.URL.Path, prefix) {
			h.ServeHTTP(w, req)
			return
		}
	}

	if h, ok := r.routes[req.Method+":"+req.URL.Path]; ok {
		h(w, req)
		return
	}

	// Earlier registrations win, so specific patterns go before broad ones.
	for _, pattern := range r.patterns {
		if matchWildcard(req.URL.Path, pattern) {
			if h, ok := r.routes[req.Method+":"+pattern]; ok {
				h(w, req)
				return
			}
		}
	}

	if r.paths[req.URL.Path] {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// matchWildcard matches a request path against a pattern where "*" stands for
// exactly one segment, except a trailing "*" which swallows the rest.
func matchWildcard(path, pattern string) bool {
	ps := strings.Split(strings.Trim(path, "/"), "/")
	rs := strings.Split(strings.Trim(pattern, "/"), "/")

	if len(rs) > 0 && rs[len(rs)-1] == "*" {
		if len(ps) < len(rs)-1 {
			return false
		}
		for i := 0; i < len(rs)-1; i++ {
			if rs[i] != "*" && ps[i] != rs[i] {
				return false
			}
		}
		return true
	}

	if len(ps) != len(rs) {
		return false
	}
	for i, seg := range rs {
		if seg != "*" && ps[i] != seg {
			return false
		}
	}
	return true
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	r.routes[method+":"+path] = handler
	if strings.Contains(path, "*") && !r.paths[path] {
		r.patterns = append(r.patterns, path)
	}
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)  { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc) { r.register(http.MethodPost, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Mount attaches an http.Handler under a path prefix (swagger UI, /metrics).
func (r *Router) Mount(prefix string, h http.Handler) {
	r.mounts[prefix] = h
}

// Start blocks serving on addr.
func (r *Router) Start(addr string) error {
	log.Printf("%slistening on %s%s", colorGreen, addr, colorReset)
	return http.ListenAndServe(addr, r)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
