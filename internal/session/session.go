// Package session persists and restores the authenticated user.
//
// Saving and restoring both go through bounded retries: a save that keeps
// failing is given up on quietly, and a restore that cannot reach the people
// service leaves the user signed out with a notice they can dismiss.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/core/metrics"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
	"github.com/vietddude/storefront/internal/infra/storage"
)

// NoticeUnverified is raised when a stored session could not be checked.
const NoticeUnverified = "could not verify session"

var errUnknownUser = errors.New("profile not found")

// RestoreOutcome is how a startup restore ended.
type RestoreOutcome int

const (
	// RestoreNoSession: nothing was stored.
	RestoreNoSession RestoreOutcome = iota
	// RestoreAdopted: the stored user is active and now current.
	RestoreAdopted
	// RestoreDiscarded: the stored user is inactive; the session was cleared.
	RestoreDiscarded
	// RestoreUnverified: the profile could not be fetched.
	RestoreUnverified
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreNoSession:
		return "no_session"
	case RestoreAdopted:
		return "adopted"
	case RestoreDiscarded:
		return "discarded"
	case RestoreUnverified:
		return "unverified"
	default:
		return "unknown"
	}
}

// Engine owns the current user and its persisted session.
type Engine struct {
	store    storage.SessionStore
	profiles ProfileFetcher
	log      *slog.Logger
	now      func() time.Time

	savePolicy    routing.RetryPolicy
	restorePolicy routing.RetryPolicy

	mu        sync.RWMutex
	session   *domain.Session
	profile   *domain.Profile
	notice    string
	pending   string
	restoring int
	onChange  func(restoring bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSavePolicy overrides routing.SessionSavePolicy.
func WithSavePolicy(p routing.RetryPolicy) Option {
	return func(e *Engine) { e.savePolicy = p }
}

// WithRestorePolicy overrides routing.SessionRestorePolicy.
func WithRestorePolicy(p routing.RetryPolicy) Option {
	return func(e *Engine) { e.restorePolicy = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// OnRestoringChange registers fn, called once on every change of Restoring.
func OnRestoringChange(fn func(restoring bool)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// New creates an Engine with no current user.
func New(store storage.SessionStore, profiles ProfileFetcher, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		profiles:      profiles,
		log:           slog.Default().With("component", "session"),
		now:           time.Now,
		savePolicy:    routing.SessionSavePolicy,
		restorePolicy: routing.SessionRestorePolicy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Save persists session with retries. Exhausting the policy is logged and
// counted, and the error is returned for callers that care.
func (e *Engine) Save(ctx context.Context, session domain.Session) error {
	if session.SavedAt.IsZero() {
		session.SavedAt = e.now()
	}

	err := routing.Retry(ctx, e.savePolicy, func(ctx context.Context, attempt int) error {
		if err := e.store.Save(ctx, session); err != nil {
			metrics.SessionAttemptsTotal.WithLabelValues("save", "failed").Inc()
			e.log.Debug("session save attempt failed", "attempt", attempt, "error", err)
			return err
		}
		metrics.SessionAttemptsTotal.WithLabelValues("save", "ok").Inc()
		return nil
	})
	if err != nil {
		metrics.SessionAttemptsTotal.WithLabelValues("save", "gave_up").Inc()
		e.log.Warn("giving up on session save", "user_id", session.UserID, "error", err)
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Restore loads the stored session and verifies the user against the
// people service. Restoring reports true for the duration of the call.
func (e *Engine) Restore(ctx context.Context) RestoreOutcome {
	e.enterRestore()
	defer e.leaveRestore()

	stored, err := e.store.Read(ctx)
	if errors.Is(err, storage.ErrSessionNotFound) {
		e.log.Debug("no stored session")
		return RestoreNoSession
	}
	if err != nil {
		e.log.Warn("could not read stored session", "error", err)
		e.raise(NoticeUnverified)
		return RestoreUnverified
	}

	// The profile lookup is authorized with the stored token, not as an
	// anonymous caller.
	e.setPending(stored.Token)
	defer e.setPending("")

	// An attempt abandoned on timeout may still finish late, so the fetched
	// profile is handed over under a lock.
	var (
		fetchedMu sync.Mutex
		fetched   domain.Profile
	)
	err = routing.Retry(ctx, e.restorePolicy, func(ctx context.Context, attempt int) error {
		res := e.profiles.FetchProfile(ctx, stored.UserID)
		switch {
		case !res.IsOk():
			metrics.SessionAttemptsTotal.WithLabelValues("restore", domain.ErrorKind(res.Err())).Inc()
			e.log.Debug("profile fetch attempt failed", "attempt", attempt, "error", res.Err())
			return res.Err()
		case res.IsNoContent():
			metrics.SessionAttemptsTotal.WithLabelValues("restore", "empty").Inc()
			return errUnknownUser
		}
		metrics.SessionAttemptsTotal.WithLabelValues("restore", "ok").Inc()
		fetchedMu.Lock()
		fetched = res.Value()
		fetchedMu.Unlock()
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			e.log.Info("session restore interrupted", "user_id", stored.UserID)
			return RestoreUnverified
		}
		e.log.Warn("could not verify stored session", "user_id", stored.UserID, "error", err)
		e.raise(NoticeUnverified)
		return RestoreUnverified
	}

	fetchedMu.Lock()
	profile := fetched
	fetchedMu.Unlock()

	if !profile.Active {
		e.log.Info("stored user is inactive, discarding session", "user_id", stored.UserID)
		if err := e.store.Clear(ctx); err != nil {
			e.log.Warn("failed to clear session", "error", err)
		}
		return RestoreDiscarded
	}

	e.adopt(stored, profile)
	e.log.Info("session restored", "user_id", profile.ID, "role", profile.RoleName)
	return RestoreAdopted
}

// Login makes profile the current user and persists session. A failed save
// does not undo the login.
func (e *Engine) Login(ctx context.Context, session domain.Session, profile domain.Profile) {
	if session.UserID == 0 {
		session.UserID = profile.ID
	}
	if session.Email == "" {
		session.Email = profile.Email
	}
	e.adopt(session, profile)
	_ = e.Save(ctx, session)
}

// Logout forgets the current user and clears the stored session. The store
// is cleared best-effort.
func (e *Engine) Logout(ctx context.Context) {
	e.mu.Lock()
	e.session = nil
	e.profile = nil
	e.mu.Unlock()

	if err := e.store.Clear(ctx); err != nil {
		e.log.Warn("failed to clear stored session", "error", err)
	}
}

// Current returns the signed-in profile.
func (e *Engine) Current() (domain.Profile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.profile == nil {
		return domain.Profile{}, false
	}
	return *e.profile, true
}

// Token returns the bearer token of the current session, or "". While a
// stored session is being verified it returns that session's token. Its
// method value fits provider.TokenSource.
func (e *Engine) Token() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return e.pending
	}
	return e.session.Token
}

// Restoring reports whether Restore is running.
func (e *Engine) Restoring() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.restoring > 0
}

// Notice returns the pending startup notice, or "".
func (e *Engine) Notice() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.notice
}

// DismissNotice clears the startup notice.
func (e *Engine) DismissNotice() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notice = ""
}

func (e *Engine) adopt(session domain.Session, profile domain.Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = &session
	e.profile = &profile
	e.notice = ""
}

func (e *Engine) setPending(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = token
}

func (e *Engine) raise(notice string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notice = notice
}

// enterRestore and leaveRestore count overlapping Restore calls so the hook
// sees exactly one false→true and one true→false edge.
func (e *Engine) enterRestore() {
	e.mu.Lock()
	e.restoring++
	edge := e.restoring == 1
	hook := e.onChange
	e.mu.Unlock()

	if edge && hook != nil {
		hook(true)
	}
}

func (e *Engine) leaveRestore() {
	e.mu.Lock()
	e.restoring--
	edge := e.restoring == 0
	hook := e.onChange
	e.mu.Unlock()

	if edge && hook != nil {
		hook(false)
	}
}
