package httpx

import (
	"net/http"

	"github.com/shopfront/ui-auth/internal/service"
)

// SessionHandlers exposes the session lifecycle over HTTP. Every mutation
// answers with the Result envelope; failures are application facts, so
// the HTTP status stays 200 unless the request itself is malformed.
type SessionHandlers struct {
	sessions *service.SessionReconciler
	otp      *service.OTPChallenges
}

// NewSessionHandlers constructs session handlers.
func NewSessionHandlers(sessions *service.SessionReconciler, otp *service.OTPChallenges) *SessionHandlers {
	return &SessionHandlers{sessions: sessions, otp: otp}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /session/login.
func (h *SessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteJSON(w, http.StatusOK, h.sessions.Login(r.Context(), req.Email, req.Password))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /session/register. A successful registration does
// not authenticate the session; it opens a verification challenge for the
// address, and the caller proceeds to OTP verification.
func (h *SessionHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res := h.sessions.Register(r.Context(), req.Username, req.Email, req.Password)
	if res.Success {
		h.otp.Begin(req.Email)
	}
	WriteJSON(w, http.StatusOK, res)
}

// Logout handles POST /session/logout.
func (h *SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.sessions.Logout(r.Context()))
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyOTP handles POST /session/otp/verify. Verification runs through
// the email's challenge so overlapping submits fail fast.
func (h *SessionHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteJSON(w, http.StatusOK, h.otp.Submit(r.Context(), req.Email, req.Code))
}

type otpResendRequest struct {
	Email string `json:"email"`
}

// ResendOTP handles POST /session/otp/resend. The challenge's cooldown
// applies: resends inside the window, or for an email with no open
// challenge, are silent no-ops that never reach the backend.
func (h *SessionHandlers) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpResendRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteJSON(w, http.StatusOK, h.otp.Resend(r.Context(), req.Email))
}

// Current handles GET /session. It returns the session snapshot as-is;
// an anonymous session is a valid answer, not an error.
func (h *SessionHandlers) Current(w http.ResponseWriter, r *http.Request) {
	h.sessions.Initialize(r.Context())
	WriteJSON(w, http.StatusOK, h.sessions.Snapshot())
}

// Refresh handles POST /session/refresh. It re-fetches the profile from
// the backend without tearing the session down first.
func (h *SessionHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.sessions.RefetchProfile(r.Context()))
}
