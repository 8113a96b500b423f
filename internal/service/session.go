package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/shopfront/ui-auth/internal/domain/auth"
	obserrors "github.com/shopfront/ui-auth/internal/observability/errors"
	"github.com/shopfront/ui-auth/internal/ports"
)

// defaultSnapshotTTL bounds how long a persisted session snapshot is
// trusted without a fresh profile fetch.
const defaultSnapshotTTL = 30 * time.Minute

// SessionReconcilerOptions groups dependencies for SessionReconciler.
// Store is optional; when set together with StoreID, reconciled viewer
// snapshots are persisted so a gateway restart can skip the initial fetch.
type SessionReconcilerOptions struct {
	API         ports.AuthAPI
	Store       ports.SessionStore
	StoreID     string
	SnapshotTTL time.Duration
	Logger      *slog.Logger
}

// SessionReconciler owns the single mutable session cell. It establishes
// and maintains the "is the viewer authenticated" fact across the initial
// profile fetch, explicit login/logout, OTP verification, and refetch.
//
// Ordering rule: every action that changes the session's logical identity
// bumps a generation counter before touching the network. A completion
// whose issue-time generation no longer matches is discarded, so user
// actions always win over stale in-flight fetch results regardless of
// response arrival order.
type SessionReconciler struct {
	api         ports.AuthAPI
	store       ports.SessionStore
	storeID     string
	snapshotTTL time.Duration
	logger      *slog.Logger
	id          string

	group singleflight.Group

	mu      sync.Mutex
	phase   auth.SessionPhase
	viewer  *auth.Viewer
	lastErr string
	gen     uint64
	fetched bool // one-shot latch for the mount-time profile fetch

	// fetchInFlight marks a profile fetch running for inFlightGen, so a
	// concurrent RefetchProfile can join it instead of issuing another.
	fetchInFlight bool
	inFlightGen   uint64

	subs    map[int]chan auth.SessionState
	nextSub int
}

// NewSessionReconciler constructs a reconciler in the uninitialized phase.
func NewSessionReconciler(opts SessionReconcilerOptions) *SessionReconciler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.SnapshotTTL
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SessionReconciler{
		api:         opts.API,
		store:       opts.Store,
		storeID:     opts.StoreID,
		snapshotTTL: ttl,
		logger:      logger,
		id:          uuid.NewString(),
		phase:       auth.PhaseUninitialized,
		subs:        make(map[int]chan auth.SessionState),
	}
}

// Snapshot returns a copy of the current session state. While IsResolving
// is true, callers must not base access decisions on IsAuthenticated.
func (r *SessionReconciler) Snapshot() auth.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *SessionReconciler) snapshotLocked() auth.SessionState {
	state := auth.SessionState{
		IsAuthenticated: r.phase == auth.PhaseAuthenticated && r.viewer != nil,
		IsResolving:     r.phase == auth.PhaseUninitialized || r.phase == auth.PhaseResolving,
		LastError:       r.lastErr,
		Phase:           r.phase,
	}
	if r.viewer != nil {
		v := *r.viewer
		state.Viewer = &v
	}
	return state
}

// Subscribe registers for session state changes. The channel holds the
// latest snapshot only; slow consumers observe coalesced updates. The
// returned cancel func releases the subscription.
func (r *SessionReconciler) Subscribe() (<-chan auth.SessionState, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan auth.SessionState, 1)
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	ch <- r.snapshotLocked()
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

func (r *SessionReconciler) notifyLocked() {
	state := r.snapshotLocked()
	for _, ch := range r.subs {
		select {
		case ch <- state:
		default:
			// Replace the stale pending snapshot with the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
		}
	}
}

// Initialize resolves the initial authentication fact. It fetches the
// profile at most once per reconciler lifetime, no matter how many times
// it is invoked or from how many goroutines; later calls return without
// side effects unless Login/Logout/RefetchProfile reset the latch.
func (r *SessionReconciler) Initialize(ctx context.Context) {
	r.mu.Lock()
	if r.viewer != nil {
		if r.phase == auth.PhaseUninitialized {
			r.phase = auth.PhaseAuthenticated
			r.notifyLocked()
		}
		r.mu.Unlock()
		return
	}
	if r.fetched {
		r.mu.Unlock()
		return
	}
	r.fetched = true
	gen := r.gen
	r.phase = auth.PhaseResolving
	r.notifyLocked()
	r.mu.Unlock()

	if rec, restored := r.restoreSnapshot(ctx); restored {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen {
			return
		}
		viewer := rec.Viewer
		r.viewer = &viewer
		r.phase = auth.PhaseAuthenticated
		r.notifyLocked()
		return
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return
	}
	r.fetchInFlight = true
	r.inFlightGen = gen
	r.mu.Unlock()

	r.resolveProfile(ctx, gen)
}

// restoreSnapshot tries the session store before going to the network.
func (r *SessionReconciler) restoreSnapshot(ctx context.Context) (auth.SessionRecord, bool) {
	if r.store == nil || r.storeID == "" {
		return auth.SessionRecord{}, false
	}
	rec, err := r.store.Get(ctx, r.storeID)
	if err != nil {
		return auth.SessionRecord{}, false
	}
	if rec.ExpiresAt <= time.Now().Unix() {
		return auth.SessionRecord{}, false
	}
	return rec, true
}

// resolveProfile runs the profile fetch and applies the outcome unless a
// newer action superseded it. Concurrent resolves for the same generation
// collapse into a single network call.
func (r *SessionReconciler) resolveProfile(ctx context.Context, gen uint64) {
	key := fmt.Sprintf("profile-%d", gen)
	res, err, _ := r.group.Do(key, func() (any, error) {
		return r.api.FetchProfile(ctx)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchInFlight && r.inFlightGen == gen {
		r.fetchInFlight = false
	}
	if r.gen != gen {
		r.logger.DebugContext(ctx, "discarding superseded profile fetch",
			"reconciler_id", r.id, "issued_gen", gen, "current_gen", r.gen)
		return
	}

	if err != nil {
		// Unauthorized simply means anonymous; anything else is logged
		// but also demotes to anonymous rather than surfacing an error.
		if !errors.Is(err, auth.ErrUnauthorized) {
			r.logger.WarnContext(ctx, "profile fetch failed",
				"reconciler_id", r.id, "error", err,
				"error_code", obserrors.Classify(err))
		}
		r.viewer = nil
		r.phase = auth.PhaseAnonymous
		r.notifyLocked()
		return
	}

	viewer, _ := res.(auth.Viewer)
	r.viewer = &viewer
	r.phase = auth.PhaseAuthenticated
	r.lastErr = ""
	r.persistLocked(ctx)
	r.notifyLocked()
}

// Login authenticates with email/password. On success the viewer is
// stored directly; no profile refetch is triggered. On failure the
// session reverts to its pre-action state and the error is recorded.
func (r *SessionReconciler) Login(ctx context.Context, email, password string) Result {
	r.mu.Lock()
	prevPhase, prevViewer := r.phase, r.viewer
	r.gen++
	gen := r.gen
	r.phase = auth.PhaseResolving
	r.lastErr = ""
	r.notifyLocked()
	r.mu.Unlock()

	viewer, err := r.api.Login(ctx, ports.Credentials{Email: email, Password: password})

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return fail("superseded by a newer session action")
	}
	if err != nil {
		msg := userMessage(err)
		r.recoverFailedAttempt(ctx, gen, prevPhase, prevViewer, msg)
		return fail(msg)
	}

	r.adoptViewerLocked(ctx, viewer)
	r.mu.Unlock()
	return ok()
}

// recoverFailedAttempt restores the pre-attempt session state after a
// failed login or OTP verification. The attempt bumped the generation, so
// any profile fetch that was in flight when it started will be discarded
// on arrival; if the session was resolving at that point the fetch must
// be re-issued under the attempt's generation, or the resolving phase
// would never terminate. Must be called with r.mu held; releases it.
func (r *SessionReconciler) recoverFailedAttempt(ctx context.Context, gen uint64, prevPhase auth.SessionPhase, prevViewer *auth.Viewer, msg string) {
	r.lastErr = msg
	r.viewer = prevViewer
	if prevPhase == auth.PhaseResolving {
		r.fetchInFlight = true
		r.inFlightGen = gen
		r.notifyLocked()
		r.mu.Unlock()
		r.resolveProfile(ctx, gen)
		return
	}
	r.phase = prevPhase
	r.notifyLocked()
	r.mu.Unlock()
}

// adoptViewerLocked installs an authenticated viewer and resets the fetch
// latch so a future lifecycle can fetch fresh profile data.
func (r *SessionReconciler) adoptViewerLocked(ctx context.Context, viewer auth.Viewer) {
	r.viewer = &viewer
	r.phase = auth.PhaseAuthenticated
	r.lastErr = ""
	r.fetched = false
	r.persistLocked(ctx)
	r.notifyLocked()
}

// Register creates a new account. It never mutates the session: the new
// account must verify its email before logging in.
func (r *SessionReconciler) Register(ctx context.Context, username, email, password string) Result {
	_, err := r.api.Register(ctx, ports.Registration{
		Username: username,
		Email:    email,
		Password: password,
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		msg := userMessage(err)
		r.lastErr = msg
		r.notifyLocked()
		return fail(msg)
	}
	r.lastErr = ""
	r.notifyLocked()
	return ok()
}

// Logout invalidates the backend session best-effort and clears local
// state regardless of the call's outcome. It always succeeds.
func (r *SessionReconciler) Logout(ctx context.Context) Result {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.phase = auth.PhaseResolving
	r.notifyLocked()
	r.mu.Unlock()

	if err := r.api.Logout(ctx); err != nil {
		r.logger.WarnContext(ctx, "logout call failed",
			"reconciler_id", r.id, "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		// A newer login already took over; don't clobber it.
		return ok()
	}
	r.viewer = nil
	r.phase = auth.PhaseAnonymous
	r.lastErr = ""
	r.fetched = false
	r.dropSnapshotLocked(ctx)
	r.notifyLocked()
	return ok()
}

// VerifyOTP confirms the emailed verification code. The code format is
// validated before any network call; on success the verified viewer is
// logged in directly.
func (r *SessionReconciler) VerifyOTP(ctx context.Context, code, email string) Result {
	if msg := validateOTPCode(code); msg != "" {
		r.mu.Lock()
		r.lastErr = msg
		r.notifyLocked()
		r.mu.Unlock()
		return fail(msg)
	}

	r.mu.Lock()
	prevPhase, prevViewer := r.phase, r.viewer
	r.gen++
	gen := r.gen
	r.phase = auth.PhaseResolving
	r.lastErr = ""
	r.notifyLocked()
	r.mu.Unlock()

	viewer, err := r.api.VerifyOTP(ctx, code, email)

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return fail("superseded by a newer session action")
	}
	if err != nil {
		msg := userMessage(err)
		r.recoverFailedAttempt(ctx, gen, prevPhase, prevViewer, msg)
		return fail(msg)
	}

	r.adoptViewerLocked(ctx, viewer)
	r.mu.Unlock()
	return ok()
}

// ResendOTP requests a fresh verification code. Cooldown gating lives in
// OTPChallenge; this is the raw, normalized network action.
func (r *SessionReconciler) ResendOTP(ctx context.Context, email string) Result {
	if err := r.api.ResendOTP(ctx, email); err != nil {
		return failErr(err)
	}
	return ok()
}

// RefetchProfile re-resolves the viewer through the normal fetch path and
// blocks until the fetch settles. When a fetch is already in flight the
// call joins it: concurrent refetches collapse into one network request
// via the generation-keyed single-flight group.
func (r *SessionReconciler) RefetchProfile(ctx context.Context) Result {
	r.mu.Lock()
	var gen uint64
	if r.fetchInFlight {
		gen = r.inFlightGen
	} else {
		r.gen++
		gen = r.gen
		r.fetched = true
		r.phase = auth.PhaseResolving
		r.fetchInFlight = true
		r.inFlightGen = gen
		r.notifyLocked()
	}
	r.mu.Unlock()

	r.resolveProfile(ctx, gen)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != auth.PhaseAuthenticated {
		return fail("not authenticated")
	}
	return ok()
}

// ClearError clears the recorded action error.
func (r *SessionReconciler) ClearError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastErr == "" {
		return
	}
	r.lastErr = ""
	r.notifyLocked()
}

func (r *SessionReconciler) persistLocked(ctx context.Context) {
	if r.store == nil || r.storeID == "" || r.viewer == nil {
		return
	}
	rec := auth.SessionRecord{
		ID:        r.storeID,
		Viewer:    *r.viewer,
		ExpiresAt: time.Now().Add(r.snapshotTTL).Unix(),
	}
	if err := r.store.Save(ctx, rec); err != nil {
		r.logger.WarnContext(ctx, "persist session snapshot failed",
			"reconciler_id", r.id, "error", err)
	}
}

func (r *SessionReconciler) dropSnapshotLocked(ctx context.Context) {
	if r.store == nil || r.storeID == "" {
		return
	}
	if err := r.store.Delete(ctx, r.storeID); err != nil {
		r.logger.WarnContext(ctx, "drop session snapshot failed",
			"reconciler_id", r.id, "error", err)
	}
}
