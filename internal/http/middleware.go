package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/shopfront/ui-auth/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Guard returns a middleware that applies the route-access decision to
// every request. While the session is still resolving it answers with a
// retryable placeholder instead of a verdict, so a redirect never fires
// before the authentication fact settles. Denials become a 302 with a
// "from" query parameter for browsers, or a 401/403 JSON body for API
// clients. Grants attach the session snapshot to the request context and
// fall through to the next handler.
func Guard(g *service.Guard, sessions *service.SessionReconciler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Decide(r.URL.Path)

			switch decision.Kind {
			case service.DecisionLoading:
				writeLoading(w, r)
			case service.DecisionRedirect:
				writeDenied(w, r, decision)
			case service.DecisionRender:
				ctx := SetSessionInContext(r.Context(), sessions.Snapshot())
				next.ServeHTTP(w, r.WithContext(ctx))
			default:
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "invalid_decision",
					Err:     errors.New("unknown guard decision"),
				})
			}
		})
	}
}

func writeLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	if isBrowserRequest(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<!doctype html><meta http-equiv="refresh" content="1"><p>Loading…</p>`))
		return
	}
	WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
		"success": false,
		"error":   "session_resolving",
		"message": "session is still resolving, retry shortly",
	})
}

func writeDenied(w http.ResponseWriter, r *http.Request, d service.Decision) {
	if isBrowserRequest(r) {
		target := d.Target
		if d.From != "" {
			target += "?" + url.Values{"from": {d.From}}.Encode()
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	code := http.StatusForbidden
	errCode := "insufficient_permissions"
	if d.Reason == "auth_required" {
		code = http.StatusUnauthorized
		errCode = "authentication_required"
	}
	WriteJSON(w, code, map[string]any{
		"success":  false,
		"error":    errCode,
		"message":  "access denied",
		"redirect": d.Target,
		"from":     d.From,
	})
}

// isBrowserRequest distinguishes navigations from API calls by the Accept
// header: browsers ask for text/html.
func isBrowserRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}
