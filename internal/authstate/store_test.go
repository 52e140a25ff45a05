package authstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

type fakeFetcher struct {
	mu         sync.Mutex
	identity   *domain.Identity
	profile    *domain.Profile
	idErr      error
	profileErr error
	idCalls    int
	fetched    chan struct{}
}

func (f *fakeFetcher) FetchIdentity(context.Context) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idCalls++
	if f.fetched != nil {
		defer func() { f.fetched <- struct{}{} }()
	}
	return f.identity, f.idErr
}

func (f *fakeFetcher) FetchProfile(context.Context, string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, f.profileErr
}

func (f *fakeFetcher) set(fn func(*fakeFetcher)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func TestRefresh_RoleDerivation(t *testing.T) {
	cases := []struct {
		name    string
		id      *domain.Identity
		profile *domain.Profile
		pErr    error
		want    domain.Role
	}{
		{"claim wins", &domain.Identity{ID: "u", RoleClaim: domain.RoleAdmin}, &domain.Profile{Role: domain.RoleSupplier}, nil, domain.RoleAdmin},
		{"profile role", &domain.Identity{ID: "u"}, &domain.Profile{Role: domain.RoleAdmin}, nil, domain.RoleAdmin},
		{"no profile", &domain.Identity{ID: "u"}, nil, nil, domain.RoleSupplier},
		{"profile error", &domain.Identity{ID: "u"}, nil, errors.New("boom"), domain.RoleSupplier},
		{"invalid profile role", &domain.Identity{ID: "u"}, &domain.Profile{Role: "root"}, nil, domain.RoleSupplier},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&fakeFetcher{identity: tc.id, profile: tc.profile, profileErr: tc.pErr}, domain.DefaultRole)

			st, err := s.Refresh(context.Background())
			require.NoError(t, err)
			assert.True(t, st.SignedIn())
			assert.Equal(t, tc.want, st.Role)
			assert.Equal(t, st, s.Snapshot())
		})
	}
}

func TestRefresh_FetchErrorFailsClosed(t *testing.T) {
	f := &fakeFetcher{identity: &domain.Identity{ID: "u", RoleClaim: domain.RoleAdmin}}
	s := New(f, domain.DefaultRole)

	st, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, st.Role)

	f.set(func(f *fakeFetcher) { f.idErr = errors.New("network down") })
	st, err = s.Refresh(context.Background())
	require.Error(t, err)

	assert.Nil(t, st.Identity)
	assert.False(t, st.SignedIn())
	assert.Equal(t, domain.RoleSupplier, st.Role)
	assert.Error(t, s.Snapshot().Err)
}

func TestNew_RefusesPrivilegedDefault(t *testing.T) {
	s := New(&fakeFetcher{identity: &domain.Identity{ID: "u"}}, domain.RoleAdmin)

	st, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupplier, st.Role)
}

func TestRun_RefetchesOnEvents(t *testing.T) {
	f := &fakeFetcher{fetched: make(chan struct{}, 8)}
	s := New(f, domain.DefaultRole)

	events := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), events) }()

	<-f.fetched
	require.Eventually(t, func() bool { return s.Snapshot().Loaded }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Snapshot().SignedIn())

	f.set(func(f *fakeFetcher) { f.identity = &domain.Identity{ID: "u1"} })
	events <- Event{Type: EventSignedIn}
	<-f.fetched

	require.Eventually(t, func() bool { return s.Snapshot().SignedIn() }, time.Second, 5*time.Millisecond)

	f.set(func(f *fakeFetcher) { f.identity = nil })
	events <- Event{Type: EventSignedOut}
	<-f.fetched
	require.Eventually(t, func() bool { return !s.Snapshot().SignedIn() }, time.Second, 5*time.Millisecond)

	close(events)
	assert.NoError(t, <-done)
}

func TestRun_StopsOnContext(t *testing.T) {
	s := New(&fakeFetcher{}, domain.DefaultRole)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, make(chan Event)) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestSubscribe_LatestValue(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, domain.DefaultRole)

	ch, cancel := s.Subscribe()
	defer cancel()

	// nothing loaded yet
	select {
	case <-ch:
		t.Fatal("unexpected state before first fetch")
	default:
	}

	for i := 0; i < 3; i++ {
		_, _ = s.Refresh(context.Background())
	}

	st := <-ch
	assert.Equal(t, uint64(3), st.Version)

	select {
	case <-ch:
		t.Fatal("slow subscriber should only hold the newest state")
	default:
	}
}

func TestSubscribe_DeliversLoadedStateAndCancelCloses(t *testing.T) {
	s := New(&fakeFetcher{identity: &domain.Identity{ID: "u"}}, domain.DefaultRole)
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	ch, cancel := s.Subscribe()
	st := <-ch
	assert.True(t, st.SignedIn())

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	// publishing after cancel must not panic
	_, err = s.Refresh(context.Background())
	assert.NoError(t, err)
}

func TestGuard(t *testing.T) {
	s := New(&fakeFetcher{}, domain.DefaultRole)

	anon := State{Loaded: true, Role: domain.RoleSupplier}
	d := s.Guard(anon, "/admin/users", "")
	assert.Equal(t, authz.RedirectLogin, d.Outcome)
	assert.Equal(t, "/login?redirect=%2Fadmin%2Fusers", d.Location)

	supplier := State{Loaded: true, Identity: &domain.Identity{ID: "u"}, Role: domain.RoleSupplier}
	assert.Equal(t, authz.RedirectDashboard, s.Guard(supplier, "/admin", "").Outcome)
	assert.Equal(t, authz.Allow, s.Guard(supplier, "/supplier/proposals", "").Outcome)
	assert.Equal(t, authz.RedirectDashboard, s.Guard(supplier, "/login", "").Outcome)

	failed := State{Loaded: true, Identity: &domain.Identity{ID: "u"}, Role: domain.RoleAdmin, Err: errors.New("x")}
	assert.Equal(t, authz.RedirectLogin, s.Guard(failed, "/admin", "").Outcome)
}
