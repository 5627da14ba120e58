package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
	"github.com/vietddude/storefront/internal/infra/storage"
	"github.com/vietddude/storefront/internal/infra/storage/memory"
	storagemocks "github.com/vietddude/storefront/internal/infra/storage/mocks"
	"github.com/vietddude/storefront/internal/session"
	"github.com/vietddude/storefront/internal/session/mocks"
)

var (
	fastSave = routing.RetryPolicy{
		MaxAttempts:    3,
		AttemptTimeout: 50 * time.Millisecond,
		Backoff:        routing.LinearBackoff(time.Millisecond),
	}
	fastRestore = routing.RetryPolicy{
		MaxAttempts:    5,
		AttemptTimeout: 50 * time.Millisecond,
		Backoff:        routing.LinearBackoff(time.Millisecond),
	}

	stored = domain.Session{UserID: 42, Token: "tok-42", Email: "ana@shop.cl", SavedAt: time.Unix(1_700_000_000, 0)}
	active = domain.Profile{ID: 42, Name: "Ana", Email: "ana@shop.cl", RoleID: 2, RoleName: "cliente", Active: true}
)

func networkFailure() domain.Result[domain.Profile] {
	return domain.Fail[domain.Profile](&domain.NetworkError{Cause: errors.New("connection refused")})
}

// edges records every Restoring change.
type edges struct {
	mu   sync.Mutex
	seen []bool
}

func (e *edges) record(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, v)
}

func (e *edges) get() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.seen...)
}

func newEngine(t *testing.T, store storage.SessionStore, profiles session.ProfileFetcher) (*session.Engine, *edges) {
	t.Helper()
	rec := &edges{}
	e := session.New(store, profiles,
		session.WithSavePolicy(fastSave),
		session.WithRestorePolicy(fastRestore),
		session.OnRestoringChange(rec.record),
	)
	return e, rec
}

func TestRestore_NoSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)

	e, rec := newEngine(t, memory.NewSessionStore(), profiles)

	assert.Equal(t, session.RestoreNoSession, e.Restore(context.Background()))
	assert.Equal(t, []bool{true, false}, rec.get())
	assert.False(t, e.Restoring())
	assert.Empty(t, e.Notice())
	_, ok := e.Current()
	assert.False(t, ok)
}

func TestRestore_AdoptsActiveUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	e, rec := newEngine(t, store, profiles)

	profiles.EXPECT().
		FetchProfile(gomock.Any(), int64(42)).
		DoAndReturn(func(ctx context.Context, id int64) domain.Result[domain.Profile] {
			assert.True(t, e.Restoring(), "flag must be up while the profile is fetched")
			return domain.Ok(active)
		})

	assert.Equal(t, session.RestoreAdopted, e.Restore(context.Background()))

	got, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, active, got)
	assert.Equal(t, "tok-42", e.Token())
	assert.Equal(t, []bool{true, false}, rec.get())
}

func TestRestore_FetchCarriesStoredToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	e, _ := newEngine(t, store, profiles)

	profiles.EXPECT().
		FetchProfile(gomock.Any(), int64(42)).
		Times(5).
		DoAndReturn(func(ctx context.Context, id int64) domain.Result[domain.Profile] {
			assert.Equal(t, "tok-42", e.Token(), "lookup must be authorized with the stored token")
			return networkFailure()
		})

	assert.Equal(t, session.RestoreUnverified, e.Restore(context.Background()))
	assert.Empty(t, e.Token(), "an unverified session grants no token")
}

func TestRestore_InactiveUserDiscardsSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	inactive := active
	inactive.Active = false
	profiles.EXPECT().FetchProfile(gomock.Any(), int64(42)).Return(domain.Ok(inactive))

	e, _ := newEngine(t, store, profiles)

	assert.Equal(t, session.RestoreDiscarded, e.Restore(context.Background()))

	_, err := store.Read(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	_, ok := e.Current()
	assert.False(t, ok)
	assert.Empty(t, e.Notice())
}

func TestRestore_RetriesUntilProfileArrives(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	profiles.EXPECT().FetchProfile(gomock.Any(), int64(42)).Return(networkFailure()).Times(2)
	profiles.EXPECT().FetchProfile(gomock.Any(), int64(42)).Return(domain.Ok(active))

	e, _ := newEngine(t, store, profiles)

	assert.Equal(t, session.RestoreAdopted, e.Restore(context.Background()))
}

func TestRestore_ExhaustionLeavesUserUnverified(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	profiles.EXPECT().FetchProfile(gomock.Any(), int64(42)).Return(networkFailure()).Times(5)

	e, rec := newEngine(t, store, profiles)

	assert.Equal(t, session.RestoreUnverified, e.Restore(context.Background()))

	assert.Equal(t, []bool{true, false}, rec.get(), "restoring goes up and down exactly once")
	assert.False(t, e.Restoring())
	assert.Equal(t, session.NoticeUnverified, e.Notice())
	_, ok := e.Current()
	assert.False(t, ok)

	// the stored session survives for the next start
	_, err := store.Read(context.Background())
	assert.NoError(t, err)

	e.DismissNotice()
	assert.Empty(t, e.Notice())
}

func TestRestore_AttemptTimeoutCountsAsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	profiles.EXPECT().
		FetchProfile(gomock.Any(), int64(42)).
		DoAndReturn(func(ctx context.Context, id int64) domain.Result[domain.Profile] {
			<-ctx.Done()
			return domain.Fail[domain.Profile](&domain.NetworkError{Cause: ctx.Err()})
		}).
		Times(5)

	e, _ := newEngine(t, store, profiles)

	assert.Equal(t, session.RestoreUnverified, e.Restore(context.Background()))
	assert.Equal(t, session.NoticeUnverified, e.Notice())
}

func TestRestore_UnknownUserIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	profiles.EXPECT().FetchProfile(gomock.Any(), int64(42)).Return(domain.NoContent[domain.Profile]()).Times(5)

	e, _ := newEngine(t, store, profiles)

	assert.Equal(t, session.RestoreUnverified, e.Restore(context.Background()))
}

func TestRestore_StoreReadErrorIsUnverified(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := storagemocks.NewMockSessionStore(ctrl)

	store.EXPECT().Read(gomock.Any()).Return(domain.Session{}, errors.New("redis down"))

	e, rec := newEngine(t, store, profiles)

	assert.Equal(t, session.RestoreUnverified, e.Restore(context.Background()))
	assert.Equal(t, session.NoticeUnverified, e.Notice())
	assert.Equal(t, []bool{true, false}, rec.get())
}

func TestRestore_CancelledIsUnverifiedWithoutNotice(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileFetcher(ctrl)
	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), stored))

	profiles.EXPECT().FetchProfile(gomock.Any(), gomock.Any()).Return(networkFailure()).AnyTimes()

	e, rec := newEngine(t, store, profiles)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, session.RestoreUnverified, e.Restore(ctx))
	assert.Empty(t, e.Notice())
	assert.Equal(t, []bool{true, false}, rec.get())
}

func TestSave_RetriesThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockSessionStore(ctrl)

	store.EXPECT().Save(gomock.Any(), stored).Return(errors.New("timeout")).Times(2)
	store.EXPECT().Save(gomock.Any(), stored).Return(nil)

	e, _ := newEngine(t, store, mocks.NewMockProfileFetcher(ctrl))

	assert.NoError(t, e.Save(context.Background(), stored))
}

func TestSave_GivesUpAfterThreeAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockSessionStore(ctrl)

	store.EXPECT().Save(gomock.Any(), stored).Return(errors.New("timeout")).Times(3)

	e, _ := newEngine(t, store, mocks.NewMockProfileFetcher(ctrl))

	err := e.Save(context.Background(), stored)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestSave_StampsSavedAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memory.NewSessionStore()
	e, _ := newEngine(t, store, mocks.NewMockProfileFetcher(ctrl))

	require.NoError(t, e.Save(context.Background(), domain.Session{UserID: 1, Token: "t"}))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, got.SavedAt.IsZero())
}

func TestLogin_AdoptsAndPersists(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memory.NewSessionStore()
	e, _ := newEngine(t, store, mocks.NewMockProfileFetcher(ctrl))

	e.Login(context.Background(), domain.Session{Token: "fresh"}, active)

	got, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, active, got)
	assert.Equal(t, "fresh", e.Token())

	persisted, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), persisted.UserID)
	assert.Equal(t, "ana@shop.cl", persisted.Email)
}

func TestLogin_SaveFailureKeepsUserSignedIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockSessionStore(ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("down")).Times(3)

	e, _ := newEngine(t, store, mocks.NewMockProfileFetcher(ctrl))

	e.Login(context.Background(), stored, active)

	_, ok := e.Current()
	assert.True(t, ok)
}

func TestLogout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memory.NewSessionStore()
	e, _ := newEngine(t, store, mocks.NewMockProfileFetcher(ctrl))
	e.Login(context.Background(), stored, active)

	e.Logout(context.Background())

	_, ok := e.Current()
	assert.False(t, ok)
	assert.Empty(t, e.Token())
	_, err := store.Read(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestLogout_StoreFailureIsBestEffort(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockSessionStore(ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().Clear(gomock.Any()).Return(errors.New("down"))

	e, _ := newEngine(t, store, mocks.NewMockProfileFetcher(ctrl))
	e.Login(context.Background(), stored, active)

	e.Logout(context.Background())

	_, ok := e.Current()
	assert.False(t, ok)
}

func TestRestoreOutcome_String(t *testing.T) {
	assert.Equal(t, "no_session", session.RestoreNoSession.String())
	assert.Equal(t, "adopted", session.RestoreAdopted.String())
	assert.Equal(t, "discarded", session.RestoreDiscarded.String())
	assert.Equal(t, "unverified", session.RestoreUnverified.String())
}
