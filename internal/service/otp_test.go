package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/shopfront/ui-auth/internal/domain/auth"
	mocks "github.com/shopfront/ui-auth/internal/mocks/auth"
)

func newChallenge(api *mocks.MockAuthAPI, clock *mocks.ManualClock) *OTPChallenge {
	return NewOTPChallenge(OTPChallengeOptions{
		Verifier: newReconciler(api),
		Clock:    clock,
		Email:    "casey@example.com",
	})
}

func frozenClock() *mocks.ManualClock {
	return mocks.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestOTPChallenge_SubmitRejectsMalformedCodeBeforeNetwork(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	c := newChallenge(api, frozenClock())

	cases := []string{"12a45", "12345", "1234567", "", "12 456"}
	for _, code := range cases {
		res := c.Submit(context.Background(), code)
		assert.False(t, res.Success, "code %q should be rejected", code)
		assert.NotEmpty(t, res.Error)
	}
	assert.Equal(t, 0, api.VerifyOTPCalls(),
		"format failures must not produce network calls")
}

func TestOTPChallenge_SubmitSuccess(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	c := newChallenge(api, frozenClock())

	res := c.Submit(context.Background(), "123456")
	require.True(t, res.Success)
	assert.Equal(t, 1, api.VerifyOTPCalls())
}

func TestOTPChallenge_SubmitSurfacesServerMessage(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	api.VerifyOTPFunc = func(_ context.Context, _, _ string) (domainauth.Viewer, error) {
		return domainauth.Viewer{}, domainauth.Remote(domainauth.ErrInvalidCode, "The code you entered is incorrect")
	}
	c := newChallenge(api, frozenClock())

	res := c.Submit(context.Background(), "123456")
	require.False(t, res.Success)
	assert.Equal(t, "The code you entered is incorrect", res.Error)
}

func TestOTPChallenge_ResendGatedByCooldown(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	clock := frozenClock()
	c := newChallenge(api, clock)

	// Challenge entry starts the cooldown; an immediate resend is a
	// silent no-op.
	res := c.Resend(context.Background())
	assert.False(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, 0, api.ResendOTPCalls())

	clock.Advance(61 * time.Second)
	res = c.Resend(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 1, api.ResendOTPCalls())

	// Cooldown restarted: the second resend inside the window makes no
	// network call.
	clock.Advance(30 * time.Second)
	res = c.Resend(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, 1, api.ResendOTPCalls())
}

func TestOTPChallenge_SuccessfulResendClearsEnteredCode(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	clock := frozenClock()
	c := newChallenge(api, clock)

	c.EnterCode("123")
	clock.Advance(resendCooldown + time.Second)

	require.True(t, c.Resend(context.Background()).Success)
	assert.Empty(t, c.Code())
}

func TestOTPChallenge_RateLimitedResendKeepsCooldownState(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	api.ResendOTPFunc = func(_ context.Context, _ string) error {
		return domainauth.ErrRateLimited
	}
	clock := frozenClock()
	c := newChallenge(api, clock)

	clock.Advance(resendCooldown + time.Second)
	before := c.CooldownRemaining()

	res := c.Resend(context.Background())
	require.False(t, res.Success)
	assert.Equal(t, domainauth.ErrRateLimited.Error(), res.Error)
	assert.Equal(t, before, c.CooldownRemaining(),
		"a failed resend must not restart the cooldown")
}

func TestOTPChallenge_CooldownRemainingCountsDown(t *testing.T) {
	clock := frozenClock()
	c := newChallenge(mocks.NewMockAuthAPI(), clock)

	assert.Equal(t, 60, c.CooldownRemaining())
	clock.Advance(15 * time.Second)
	assert.Equal(t, 45, c.CooldownRemaining())
	clock.Advance(45 * time.Second)
	assert.Equal(t, 0, c.CooldownRemaining())
	clock.Advance(time.Hour)
	assert.Equal(t, 0, c.CooldownRemaining())
}

func newChallengeSet(api *mocks.MockAuthAPI, clock *mocks.ManualClock) *OTPChallenges {
	return NewOTPChallenges(OTPChallengesOptions{
		Verifier: newReconciler(api),
		Clock:    clock,
	})
}

func TestOTPChallenges_ResendWithoutOpenChallengeIsSilentNoOp(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	s := newChallengeSet(api, frozenClock())

	res := s.Resend(context.Background(), "casey@example.com")
	assert.False(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, 0, api.ResendOTPCalls())
}

func TestOTPChallenges_ResendGatedPerEmail(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	clock := frozenClock()
	s := newChallengeSet(api, clock)
	ctx := context.Background()

	s.Begin("casey@example.com")
	res := s.Resend(ctx, "casey@example.com")
	assert.False(t, res.Success)
	assert.Equal(t, 0, api.ResendOTPCalls())

	clock.Advance(61 * time.Second)
	res = s.Resend(ctx, "casey@example.com")
	assert.True(t, res.Success)
	assert.Equal(t, 1, api.ResendOTPCalls())

	// Another email's challenge carries its own cooldown.
	s.Begin("riley@example.com")
	res = s.Resend(ctx, "riley@example.com")
	assert.False(t, res.Success)
	assert.Equal(t, 1, api.ResendOTPCalls())
}

func TestOTPChallenges_BeginDoesNotResetRunningCooldown(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	clock := frozenClock()
	s := newChallengeSet(api, clock)

	first := s.Begin("casey@example.com")
	clock.Advance(45 * time.Second)
	again := s.Begin("casey@example.com")

	assert.Same(t, first, again)
	assert.Equal(t, 15, again.CooldownRemaining())
}

func TestOTPChallenges_SuccessfulSubmitClosesChallenge(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	clock := frozenClock()
	s := newChallengeSet(api, clock)
	ctx := context.Background()

	s.Begin("casey@example.com")
	res := s.Submit(ctx, "casey@example.com", "123456")
	require.True(t, res.Success)

	// The challenge is gone; a later resend has nothing to act on.
	clock.Advance(61 * time.Second)
	res = s.Resend(ctx, "casey@example.com")
	assert.False(t, res.Success)
	assert.Equal(t, 0, api.ResendOTPCalls())
}
