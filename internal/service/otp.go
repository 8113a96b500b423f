package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopfront/ui-auth/internal/ports"
)

// otpCodeLength is the expected verification code length.
const otpCodeLength = 6

// resendCooldown is the minimum wait between consecutive resend requests.
// It is a UI affordance; the backend enforces its own rate limit.
const resendCooldown = 60 * time.Second

// OTPVerifier is the session-side surface the challenge delegates network
// actions to. SessionReconciler implements it.
type OTPVerifier interface {
	VerifyOTP(ctx context.Context, code, email string) Result
	ResendOTP(ctx context.Context, email string) Result
}

// OTPChallengeOptions groups dependencies for OTPChallenge.
type OTPChallengeOptions struct {
	Verifier OTPVerifier
	Clock    ports.Clock
	Email    string
	Logger   *slog.Logger
}

// OTPChallenge tracks one in-progress email verification attempt: the
// entered code, whether a submit is in flight, and the resend cooldown.
// The cooldown starts on challenge entry and restarts on each successful
// resend. It is destroyed by navigating away; there is no teardown.
type OTPChallenge struct {
	verifier OTPVerifier
	clock    ports.Clock
	logger   *slog.Logger
	email    string

	mu              sync.Mutex
	code            string
	attemptInFlight bool
	resendNotBefore time.Time
}

// NewOTPChallenge creates a challenge for the given email with the resend
// cooldown already running.
func NewOTPChallenge(opts OTPChallengeOptions) *OTPChallenge {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OTPChallenge{
		verifier:        opts.Verifier,
		clock:           clock,
		logger:          logger,
		email:           opts.Email,
		resendNotBefore: clock.Now().Add(resendCooldown),
	}
}

// Email returns the address under verification.
func (c *OTPChallenge) Email() string { return c.email }

// EnterCode records the partially entered code.
func (c *OTPChallenge) EnterCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = code
}

// Code returns the currently entered code.
func (c *OTPChallenge) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// CooldownRemaining returns the whole seconds left before another resend
// is permitted, zero when the cooldown has elapsed.
func (c *OTPChallenge) CooldownRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.resendNotBefore.Sub(c.clock.Now())
	if remaining <= 0 {
		return 0
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	return secs
}

// Submit validates the code format and, if well-formed, verifies it with
// the backend. Format failures never reach the network. Only one submit
// runs at a time; overlapping submits fail fast.
func (c *OTPChallenge) Submit(ctx context.Context, code string) Result {
	if msg := validateOTPCode(code); msg != "" {
		return fail(msg)
	}

	c.mu.Lock()
	if c.attemptInFlight {
		c.mu.Unlock()
		return fail("verification already in progress")
	}
	c.attemptInFlight = true
	c.code = code
	c.mu.Unlock()

	res := c.verifier.VerifyOTP(ctx, code, c.email)

	c.mu.Lock()
	c.attemptInFlight = false
	c.mu.Unlock()
	return res
}

// Resend requests a fresh code. During the cooldown it is a silent no-op:
// no network call, no error message. A successful resend restarts the
// cooldown and clears any partially entered code; a failed one (including
// rate limiting) leaves the cooldown untouched.
func (c *OTPChallenge) Resend(ctx context.Context) Result {
	c.mu.Lock()
	if c.clock.Now().Before(c.resendNotBefore) {
		c.mu.Unlock()
		return Result{Success: false}
	}
	c.mu.Unlock()

	res := c.verifier.ResendOTP(ctx, c.email)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !res.Success {
		return res
	}
	c.resendNotBefore = c.clock.Now().Add(resendCooldown)
	c.code = ""
	return res
}

// OTPChallengesOptions groups dependencies for OTPChallenges.
type OTPChallengesOptions struct {
	Verifier OTPVerifier
	Clock    ports.Clock
	Logger   *slog.Logger
}

// OTPChallenges tracks the in-progress verification challenge per email,
// so cooldown gating holds across requests. A challenge is created when
// the viewer enters verification (Begin) and removed once verification
// succeeds.
type OTPChallenges struct {
	verifier OTPVerifier
	clock    ports.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	byEmail map[string]*OTPChallenge
}

// NewOTPChallenges constructs an empty challenge registry.
func NewOTPChallenges(opts OTPChallengesOptions) *OTPChallenges {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OTPChallenges{
		verifier: opts.Verifier,
		clock:    clock,
		logger:   logger,
		byEmail:  make(map[string]*OTPChallenge),
	}
}

// Begin opens a challenge for the email, starting its resend cooldown.
// An already-open challenge is returned as-is; re-entering verification
// does not reset a running cooldown.
func (s *OTPChallenges) Begin(email string) *OTPChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byEmail[email]; ok {
		return c
	}
	c := NewOTPChallenge(OTPChallengeOptions{
		Verifier: s.verifier,
		Clock:    s.clock,
		Email:    email,
		Logger:   s.logger,
	})
	s.byEmail[email] = c
	return c
}

// Submit verifies a code for the email's challenge, opening one if the
// viewer arrived without an explicit Begin. The challenge is discarded on
// success; the account needs no further verification.
func (s *OTPChallenges) Submit(ctx context.Context, email, code string) Result {
	c := s.Begin(email)
	res := c.Submit(ctx, code)
	if res.Success {
		s.mu.Lock()
		delete(s.byEmail, email)
		s.mu.Unlock()
	}
	return res
}

// Resend requests a fresh code through the email's challenge so the
// cooldown applies. A resend for an email with no open challenge is a
// silent no-op, same as a resend during cooldown.
func (s *OTPChallenges) Resend(ctx context.Context, email string) Result {
	s.mu.Lock()
	c, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return Result{Success: false}
	}
	return c.Resend(ctx)
}

// validateOTPCode checks the 6-digit format. Returns an empty string when
// valid, the user-facing message otherwise.
func validateOTPCode(code string) string {
	if len(code) != otpCodeLength {
		return "verification code must be 6 digits"
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "verification code must contain only digits"
		}
	}
	return ""
}
