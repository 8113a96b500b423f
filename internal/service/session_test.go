package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/shopfront/ui-auth/internal/domain/auth"
	mocks "github.com/shopfront/ui-auth/internal/mocks/auth"
	"github.com/shopfront/ui-auth/internal/ports"
)

func newReconciler(api ports.AuthAPI) *SessionReconciler {
	return NewSessionReconciler(SessionReconcilerOptions{API: api})
}

func TestSessionReconciler_InitialSnapshotIsResolving(t *testing.T) {
	r := newReconciler(mocks.NewMockAuthAPI())

	state := r.Snapshot()
	assert.True(t, state.IsResolving)
	assert.False(t, state.IsAuthenticated)
	assert.Equal(t, domainauth.PhaseUninitialized, state.Phase)
}

func TestSessionReconciler_InitializeSuccess(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)

	r.Initialize(context.Background())

	state := r.Snapshot()
	require.NotNil(t, state.Viewer)
	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.IsResolving)
	assert.Equal(t, domainauth.PhaseAuthenticated, state.Phase)
	assert.Equal(t, 1, api.FetchProfileCalls())
}

func TestSessionReconciler_InitializeUnauthorizedBecomesAnonymous(t *testing.T) {
	api := &mocks.MockAuthAPI{
		FetchProfileFunc: func(_ context.Context) (domainauth.Viewer, error) {
			return domainauth.Viewer{}, domainauth.ErrUnauthorized
		},
	}
	r := newReconciler(api)

	r.Initialize(context.Background())

	state := r.Snapshot()
	assert.Nil(t, state.Viewer)
	assert.False(t, state.IsAuthenticated)
	assert.Equal(t, domainauth.PhaseAnonymous, state.Phase)
	// The failed fetch is not surfaced as a user-facing error.
	assert.Empty(t, state.LastError)
}

func TestSessionReconciler_SingleFetchAcrossRapidMounts(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Initialize(ctx)
		}()
	}
	wg.Wait()
	r.Initialize(ctx)
	r.Initialize(ctx)

	assert.Equal(t, 1, api.FetchProfileCalls(),
		"remount storms must not issue a second profile fetch")
}

func TestSessionReconciler_LogoutWinsOverInFlightFetch(t *testing.T) {
	release := make(chan struct{})
	api := &mocks.MockAuthAPI{
		FetchProfileFunc: func(_ context.Context) (domainauth.Viewer, error) {
			<-release
			return mocks.DefaultViewer(), nil
		},
	}
	r := newReconciler(api)
	ctx := context.Background()

	initDone := make(chan struct{})
	go func() {
		r.Initialize(ctx)
		close(initDone)
	}()

	// Wait until the fetch is actually in flight.
	require.Eventually(t, func() bool {
		return api.FetchProfileCalls() == 1
	}, time.Second, time.Millisecond)

	res := r.Logout(ctx)
	require.True(t, res.Success)

	// The fetch now resolves successfully, but it was superseded.
	close(release)
	<-initDone

	state := r.Snapshot()
	assert.Equal(t, domainauth.PhaseAnonymous, state.Phase)
	assert.Nil(t, state.Viewer)
	assert.False(t, state.IsAuthenticated)
}

func TestSessionReconciler_LoginSuccess(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)

	res := r.Login(context.Background(), "casey@example.com", "hunter22")
	require.True(t, res.Success)

	state := r.Snapshot()
	require.NotNil(t, state.Viewer)
	assert.Equal(t, "casey@example.com", state.Viewer.Email)
	assert.True(t, state.IsAuthenticated)
	// Login stores the returned viewer directly; no profile fetch happens.
	assert.Equal(t, 0, api.FetchProfileCalls())
}

func TestSessionReconciler_LoginFailureKeepsPriorState(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)
	ctx := context.Background()

	r.Initialize(ctx)
	before := r.Snapshot()
	require.True(t, before.IsAuthenticated)

	api.LoginFunc = func(_ context.Context, _ ports.Credentials) (domainauth.Viewer, error) {
		return domainauth.Viewer{}, domainauth.Remote(domainauth.ErrInvalidCredentials, "Email or password is incorrect")
	}

	res := r.Login(ctx, "casey@example.com", "wrong")
	require.False(t, res.Success)
	assert.Equal(t, "Email or password is incorrect", res.Error)

	after := r.Snapshot()
	assert.True(t, after.IsAuthenticated)
	assert.Equal(t, before.Viewer, after.Viewer)
	assert.Equal(t, "Email or password is incorrect", after.LastError)
}

func TestSessionReconciler_LoginNetworkFailureIsGeneric(t *testing.T) {
	api := &mocks.MockAuthAPI{
		LoginFunc: func(_ context.Context, _ ports.Credentials) (domainauth.Viewer, error) {
			return domainauth.Viewer{}, &domainauth.NetworkError{Op: "login", Err: errors.New("dial tcp: timeout")}
		},
	}
	r := newReconciler(api)

	res := r.Login(context.Background(), "casey@example.com", "hunter22")
	require.False(t, res.Success)
	assert.Equal(t, genericNetworkMessage, res.Error)
	assert.NotContains(t, res.Error, "dial tcp")

	state := r.Snapshot()
	assert.Equal(t, domainauth.PhaseUninitialized, state.Phase,
		"failed login must revert to the pre-action state")
}

func TestSessionReconciler_LogoutClearsStateEvenWhenCallFails(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	api.LogoutFunc = func(_ context.Context) error {
		return &domainauth.NetworkError{Op: "logout", Err: errors.New("connection reset")}
	}
	r := newReconciler(api)
	ctx := context.Background()

	require.True(t, r.Login(ctx, "casey@example.com", "hunter22").Success)

	res := r.Logout(ctx)
	assert.True(t, res.Success)

	state := r.Snapshot()
	assert.Nil(t, state.Viewer)
	assert.Equal(t, domainauth.PhaseAnonymous, state.Phase)
	assert.Equal(t, 1, api.LogoutCalls())
}

func TestSessionReconciler_LoginResetsFetchLatch(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)
	ctx := context.Background()

	r.Initialize(ctx)
	require.Equal(t, 1, api.FetchProfileCalls())

	require.True(t, r.Login(ctx, "casey@example.com", "hunter22").Success)
	require.True(t, r.Logout(ctx).Success)

	// After the identity changed and was cleared, a fresh mount fetches again.
	r.Initialize(ctx)
	assert.Equal(t, 2, api.FetchProfileCalls())
}

func TestSessionReconciler_RegisterDoesNotAuthenticate(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)

	res := r.Register(context.Background(), "casey", "casey@example.com", "hunter22")
	require.True(t, res.Success)

	state := r.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.Viewer)
	assert.Equal(t, 1, api.RegisterCalls())
}

func TestSessionReconciler_RegisterValidationErrorIsAggregated(t *testing.T) {
	api := &mocks.MockAuthAPI{
		RegisterFunc: func(_ context.Context, _ ports.Registration) (domainauth.Viewer, error) {
			return domainauth.Viewer{}, &domainauth.ValidationError{Fields: map[string]string{
				"email":    "already registered",
				"username": "too short",
			}}
		},
	}
	r := newReconciler(api)

	res := r.Register(context.Background(), "c", "casey@example.com", "hunter22")
	require.False(t, res.Success)
	assert.Equal(t, "email: already registered; username: too short", res.Error)
}

func TestSessionReconciler_VerifyOTPFormatGate(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)

	res := r.VerifyOTP(context.Background(), "12a45", "casey@example.com")
	require.False(t, res.Success)
	assert.Equal(t, 0, api.VerifyOTPCalls(), "malformed codes must not reach the network")
}

func TestSessionReconciler_VerifyOTPSuccessAuthenticates(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)

	res := r.VerifyOTP(context.Background(), "123456", "casey@example.com")
	require.True(t, res.Success)

	state := r.Snapshot()
	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.Viewer)
	assert.Equal(t, "casey@example.com", state.Viewer.Email)
}

func TestSessionReconciler_RefetchProfileIsSoft(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	r := newReconciler(api)
	ctx := context.Background()

	r.Initialize(ctx)
	require.Equal(t, 1, api.FetchProfileCalls())

	res := r.RefetchProfile(ctx)
	require.True(t, res.Success)
	assert.Equal(t, 2, api.FetchProfileCalls())
	assert.True(t, r.Snapshot().IsAuthenticated)
}

func TestSessionReconciler_ClearError(t *testing.T) {
	api := &mocks.MockAuthAPI{
		LoginFunc: func(_ context.Context, _ ports.Credentials) (domainauth.Viewer, error) {
			return domainauth.Viewer{}, domainauth.ErrInvalidCredentials
		},
	}
	r := newReconciler(api)

	require.False(t, r.Login(context.Background(), "casey@example.com", "nope").Success)
	require.NotEmpty(t, r.Snapshot().LastError)

	r.ClearError()
	assert.Empty(t, r.Snapshot().LastError)
}

func TestSessionReconciler_SnapshotIsACopy(t *testing.T) {
	r := newReconciler(mocks.NewMockAuthAPI())
	require.True(t, r.Login(context.Background(), "casey@example.com", "hunter22").Success)

	snap := r.Snapshot()
	snap.Viewer.Username = "tampered"

	assert.Equal(t, "mockviewer", r.Snapshot().Viewer.Username,
		"mutating a snapshot must not affect the reconciler's state")
}

func TestSessionReconciler_SubscribeSeesTransitions(t *testing.T) {
	r := newReconciler(mocks.NewMockAuthAPI())
	ch, cancel := r.Subscribe()
	defer cancel()

	initial := <-ch
	assert.Equal(t, domainauth.PhaseUninitialized, initial.Phase)

	require.True(t, r.Login(context.Background(), "casey@example.com", "hunter22").Success)

	require.Eventually(t, func() bool {
		select {
		case state := <-ch:
			return state.Phase == domainauth.PhaseAuthenticated
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestSessionReconciler_StoreRestoreSkipsFetch(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	store := mocks.NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.SessionRecord{
		ID:        "gw-1",
		Viewer:    domainauth.Viewer{ID: "u9", Username: "restored", Role: domainauth.RoleAdmin},
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}))

	r := NewSessionReconciler(SessionReconcilerOptions{API: api, Store: store, StoreID: "gw-1"})
	r.Initialize(ctx)

	state := r.Snapshot()
	require.NotNil(t, state.Viewer)
	assert.Equal(t, "restored", state.Viewer.Username)
	assert.Equal(t, 0, api.FetchProfileCalls())
}

func TestSessionReconciler_ExpiredStoreRecordFallsBackToFetch(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	store := mocks.NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.SessionRecord{
		ID:        "gw-1",
		Viewer:    domainauth.Viewer{ID: "u9", Username: "stale"},
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}))

	r := NewSessionReconciler(SessionReconcilerOptions{API: api, Store: store, StoreID: "gw-1"})
	r.Initialize(ctx)

	assert.Equal(t, 1, api.FetchProfileCalls())
	assert.Equal(t, "mockviewer", r.Snapshot().Viewer.Username)
}

func TestSessionReconciler_LogoutDropsStoredSnapshot(t *testing.T) {
	api := mocks.NewMockAuthAPI()
	store := mocks.NewMemorySessionStore()
	ctx := context.Background()

	r := NewSessionReconciler(SessionReconcilerOptions{API: api, Store: store, StoreID: "gw-1"})
	require.True(t, r.Login(ctx, "casey@example.com", "hunter22").Success)

	_, err := store.Get(ctx, "gw-1")
	require.NoError(t, err)

	require.True(t, r.Logout(ctx).Success)
	_, err = store.Get(ctx, "gw-1")
	assert.ErrorIs(t, err, mocks.ErrNotFound)
}

func TestSessionReconciler_FailedLoginDuringInitialFetchStillSettles(t *testing.T) {
	release := make(chan struct{})
	api := &mocks.MockAuthAPI{
		FetchProfileFunc: func(_ context.Context) (domainauth.Viewer, error) {
			<-release
			return domainauth.Viewer{}, domainauth.ErrUnauthorized
		},
		LoginFunc: func(_ context.Context, _ ports.Credentials) (domainauth.Viewer, error) {
			return domainauth.Viewer{}, domainauth.Remote(domainauth.ErrInvalidCredentials, "Email or password is incorrect")
		},
	}
	r := newReconciler(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); r.Initialize(ctx) }()
	require.Eventually(t, func() bool { return api.FetchProfileCalls() == 1 }, time.Second, time.Millisecond)

	var res Result
	wg.Add(1)
	go func() { defer wg.Done(); res = r.Login(ctx, "casey@example.com", "wrong") }()
	require.Eventually(t, func() bool { return api.LoginCalls() == 1 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	require.False(t, res.Success)
	assert.Equal(t, "Email or password is incorrect", res.Error)

	state := r.Snapshot()
	assert.False(t, state.IsResolving, "session must settle after the fetch resolves")
	assert.False(t, state.IsAuthenticated)
	assert.Equal(t, domainauth.PhaseAnonymous, state.Phase)
	assert.Equal(t, "Email or password is incorrect", state.LastError)
}

func TestSessionReconciler_FailedVerifyDuringInitialFetchStillSettles(t *testing.T) {
	release := make(chan struct{})
	api := &mocks.MockAuthAPI{
		FetchProfileFunc: func(_ context.Context) (domainauth.Viewer, error) {
			<-release
			return domainauth.Viewer{}, domainauth.ErrUnauthorized
		},
		VerifyOTPFunc: func(_ context.Context, _, _ string) (domainauth.Viewer, error) {
			return domainauth.Viewer{}, domainauth.Remote(domainauth.ErrInvalidCode, "Invalid verification code")
		},
	}
	r := newReconciler(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); r.Initialize(ctx) }()
	require.Eventually(t, func() bool { return api.FetchProfileCalls() == 1 }, time.Second, time.Millisecond)

	var res Result
	wg.Add(1)
	go func() { defer wg.Done(); res = r.VerifyOTP(ctx, "123456", "casey@example.com") }()
	require.Eventually(t, func() bool { return api.VerifyOTPCalls() == 1 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	require.False(t, res.Success)
	assert.Equal(t, "Invalid verification code", res.Error)

	state := r.Snapshot()
	assert.False(t, state.IsResolving, "session must settle after the fetch resolves")
	assert.Equal(t, domainauth.PhaseAnonymous, state.Phase)
}

func TestSessionReconciler_ConcurrentRefetchesShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	api := &mocks.MockAuthAPI{
		FetchProfileFunc: func(_ context.Context) (domainauth.Viewer, error) {
			<-release
			return mocks.DefaultViewer(), nil
		},
	}
	r := newReconciler(api)
	ctx := context.Background()

	const refetchers = 4
	var wg sync.WaitGroup
	results := make([]Result, refetchers)

	wg.Add(1)
	go func() { defer wg.Done(); results[0] = r.RefetchProfile(ctx) }()
	require.Eventually(t, func() bool { return api.FetchProfileCalls() == 1 }, time.Second, time.Millisecond)

	for i := 1; i < refetchers; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); results[i] = r.RefetchProfile(ctx) }()
	}
	// Give the joiners time to attach to the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, api.FetchProfileCalls())
	for i, res := range results {
		assert.True(t, res.Success, "refetch %d", i)
	}
	assert.True(t, r.Snapshot().IsAuthenticated)
}
