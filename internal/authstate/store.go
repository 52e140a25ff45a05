// Package authstate is the client-side cache of "who am I and what may I
// see". One owner goroutine consumes auth-state-change events and refetches;
// readers take snapshots or subscribe for the latest state.
package authstate

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
	EventUserUpdated    EventType = "user_updated"
)

type Event struct {
	Type EventType
	At   time.Time
}

// Fetcher loads the current identity and its profile. A nil identity means
// signed out; a nil profile means none exists yet.
type Fetcher interface {
	FetchIdentity(ctx context.Context) (*domain.Identity, error)
	FetchProfile(ctx context.Context, identityID string) (*domain.Profile, error)
}

// State is an immutable snapshot. Err is set when the last fetch failed, in
// which case Identity is nil.
type State struct {
	Identity  *domain.Identity
	Profile   *domain.Profile
	Role      domain.Role
	Loaded    bool
	Err       error
	Version   uint64
	UpdatedAt time.Time
}

func (s State) SignedIn() bool { return s.Identity != nil && s.Err == nil }

type Store struct {
	fetcher     Fetcher
	defaultRole domain.Role
	classifier  *authz.Classifier
	now         func() time.Time

	mu      sync.RWMutex
	state   State
	version uint64
	subs    map[int]chan State
	nextSub int
}

// New builds a store. defaultRole falls back to domain.DefaultRole unless it
// is least-privileged.
func New(fetcher Fetcher, defaultRole domain.Role) *Store {
	if !domain.IsLeastPrivileged(defaultRole) {
		defaultRole = domain.DefaultRole
	}
	return &Store{
		fetcher:     fetcher,
		defaultRole: defaultRole,
		classifier:  authz.DefaultClassifier(),
		now:         time.Now,
		state:       State{Role: defaultRole},
		subs:        make(map[int]chan State),
	}
}

// Run fetches once, then refetches on every event until ctx is done or
// events is closed. It must have a single caller.
func (s *Store) Run(ctx context.Context, events <-chan Event) error {
	_, _ = s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			_, _ = s.Refresh(ctx)
		}
	}
}

// Refresh fetches identity and profile and publishes the result. The last
// fetch to complete wins.
func (s *Store) Refresh(ctx context.Context) (State, error) {
	next, err := s.fetch(ctx)
	return s.publish(next), err
}

func (s *Store) fetch(ctx context.Context) (State, error) {
	st := State{Loaded: true, Role: s.defaultRole}

	id, err := s.fetcher.FetchIdentity(ctx)
	if err != nil {
		st.Err = err
		return st, err
	}
	if id == nil {
		return st, nil
	}
	st.Identity = id

	// A missing or unreadable profile still leaves a signed-in identity.
	prof, err := s.fetcher.FetchProfile(ctx, id.ID)
	if err == nil {
		st.Profile = prof
	}
	st.Role = deriveRole(id, prof, s.defaultRole)
	return st, nil
}

// deriveRole mirrors the server: claim, then profile, then default.
func deriveRole(id *domain.Identity, prof *domain.Profile, def domain.Role) domain.Role {
	if id != nil && id.RoleClaim.Valid() {
		return id.RoleClaim
	}
	if prof != nil && prof.Role.Valid() {
		return prof.Role
	}
	return def
}

func (s *Store) publish(st State) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	st.Version = s.version
	st.UpdatedAt = s.now()
	s.state = st

	for _, ch := range s.subs {
		offer(ch, st)
	}
	return st
}

// offer replaces whatever is buffered with st. Subscribers only ever see the
// newest state.
func offer(ch chan State, st State) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel carrying the latest state and a cancel func
// that closes it. A loaded state is delivered immediately.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	if s.state.Loaded {
		ch <- s.state
	}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}

// Guard applies the shared decision table to a snapshot. A failed or not
// yet loaded state counts as anonymous.
func (s *Store) Guard(st State, p, rawQuery string) authz.Decision {
	return authz.Decide(authz.Input{
		HasSession: st.SignedIn(),
		Role:       st.Role,
		Class:      s.classifier.Classify(p),
		Path:       p,
		RawQuery:   rawQuery,
	})
}
