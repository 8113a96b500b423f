package httpx

import (
	"io"
	"net/http"

	"github.com/shopfront/ui-auth/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions *service.SessionReconciler
	Guard    *service.Guard
	// OTP gates verification resends per email. If nil, a registry
	// backed by the session reconciler is created.
	OTP *service.OTPChallenges
	// Shell renders the app shell for guarded navigations. If nil a
	// minimal JSON shell handler is used.
	Shell http.Handler
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	otp := services.OTP
	if otp == nil {
		otp = service.NewOTPChallenges(service.OTPChallengesOptions{Verifier: services.Sessions})
	}
	sessionHandlers := NewSessionHandlers(services.Sessions, otp)
	registerSessionRoutes(mux, sessionHandlers)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	shell := services.Shell
	if shell == nil {
		shell = http.HandlerFunc(shellHandler)
	}
	mux.Handle("/", Guard(services.Guard, services.Sessions)(shell))

	return mux
}

func registerSessionRoutes(mux *http.ServeMux, h *SessionHandlers) {
	mux.Handle("GET /session", http.HandlerFunc(h.Current))
	mux.Handle("POST /session/login", http.HandlerFunc(h.Login))
	mux.Handle("POST /session/register", http.HandlerFunc(h.Register))
	mux.Handle("POST /session/logout", http.HandlerFunc(h.Logout))
	mux.Handle("POST /session/refresh", http.HandlerFunc(h.Refresh))
	mux.Handle("POST /session/otp/verify", http.HandlerFunc(h.VerifyOTP))
	mux.Handle("POST /session/otp/resend", http.HandlerFunc(h.ResendOTP))
}

const healthResponse = `{"status":"ok"}`

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// shellHandler answers guarded navigations when no app shell is wired.
// The guard has already granted access and stashed the session snapshot
// in the request context.
func shellHandler(w http.ResponseWriter, r *http.Request) {
	state, _ := SessionFromContext(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"path":    r.URL.Path,
		"session": state,
	})
}
