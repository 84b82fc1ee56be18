package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
	"github.com/yndnr/littlesteps-go/pkg/token"
)

// Persisted key names.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// Tokens is the persisted token pair.
type Tokens struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Empty reports whether neither token is present.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// State is a point-in-time copy of the session.
type State struct {
	Tokens
	User *domain.User
}

// LoggedIn reports whether an access token is held.
func (s State) LoggedIn() bool {
	return s.AccessToken != ""
}

// Lease is the token pair as seen at one moment, tagged with the login
// it belongs to. Epoch changes on every login, restore and logout but
// not when a refresh replaces the access token.
type Lease struct {
	Tokens
	Epoch uint64
}

// EventKind identifies a session change.
type EventKind int

const (
	EventLogin EventKind = iota + 1
	EventRefresh
	EventUser
	EventLogout
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventRefresh:
		return "refresh"
	case EventUser:
		return "user"
	case EventLogout:
		return "logout"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes a change. State is the session after the change.
type Event struct {
	Kind   EventKind
	State  State
	Reason string
}

// Session is the single owner of the token pair and cached user.
// It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	store Store
	state State
	epoch uint64

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int

	logger logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates an empty session backed by store. A nil store means
// memory only.
func New(store Store, opts ...Option) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Session{
		store:  store,
		subs:   make(map[int]func(Event)),
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// Store returns the backing store.
func (s *Session) Store() Store {
	return s.store
}

// Restore loads the persisted tokens into memory. The cached user is
// cleared; the caller re-fetches it.
func (s *Session) Restore(ctx context.Context) (Tokens, error) {
	t, err := s.store.Load(ctx)
	if err != nil {
		return Tokens{}, domain.ErrSessionStore.WithDetails("load").WithCause(err)
	}

	s.mu.Lock()
	s.state = State{Tokens: t}
	s.epoch++
	s.mu.Unlock()

	s.logger.Debug("session restored",
		"has_access", t.AccessToken != "",
		"has_refresh", t.RefreshToken != "")
	return t, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// Lease returns the current tokens and login epoch.
func (s *Session) Lease() Lease {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Lease{Tokens: s.state.Tokens, Epoch: s.epoch}
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

// SetTokens replaces the token pair after a login. The cached user is
// dropped because it belonged to the previous tokens.
func (s *Session) SetTokens(ctx context.Context, t Tokens) error {
	s.mu.Lock()
	if err := s.store.Save(ctx, t); err != nil {
		s.mu.Unlock()
		return domain.ErrSessionStore.WithDetails("save").WithCause(err)
	}
	s.state = State{Tokens: t}
	s.epoch++
	ev := Event{Kind: EventLogin, State: s.copyLocked()}
	s.mu.Unlock()

	s.logger.Debug("tokens stored", "access", token.Fingerprint(t.AccessToken))
	s.publish(ev)
	return nil
}

// UpdateAccess installs a refreshed access token. An empty refresh keeps
// the refresh token already held.
func (s *Session) UpdateAccess(ctx context.Context, access, refresh string) error {
	_, err := s.updateAccess(ctx, nil, access, refresh)
	return err
}

// UpdateAccessFor is UpdateAccess for the login identified by epoch. It
// reports false and changes nothing when another login has replaced it.
func (s *Session) UpdateAccessFor(ctx context.Context, epoch uint64, access, refresh string) (bool, error) {
	return s.updateAccess(ctx, &epoch, access, refresh)
}

func (s *Session) updateAccess(ctx context.Context, epoch *uint64, access, refresh string) (bool, error) {
	s.mu.Lock()
	if epoch != nil && (*epoch != s.epoch || s.state.Tokens.Empty()) {
		s.mu.Unlock()
		return false, nil
	}
	next := s.state.Tokens
	next.AccessToken = access
	if refresh != "" {
		next.RefreshToken = refresh
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return false, domain.ErrSessionStore.WithDetails("save").WithCause(err)
	}
	s.state.Tokens = next
	ev := Event{Kind: EventRefresh, State: s.copyLocked()}
	s.mu.Unlock()

	s.logger.Debug("access token updated",
		"access", token.Fingerprint(access),
		"refresh_rotated", refresh != "")
	s.publish(ev)
	return true, nil
}

// SetUser caches the identity for the current tokens.
func (s *Session) SetUser(u *domain.User) {
	s.mu.Lock()
	if u != nil {
		cp := *u
		u = &cp
	}
	s.state.User = u
	ev := Event{Kind: EventUser, State: s.copyLocked()}
	s.mu.Unlock()

	s.publish(ev)
}

// Clear removes tokens and user from memory and the store. Memory is
// cleared even when the store fails; the store error is returned.
// Clearing an empty session publishes nothing.
func (s *Session) Clear(ctx context.Context, reason string) error {
	_, err := s.clear(ctx, nil, reason)
	return err
}

// ClearFor clears the session only while it still holds the login
// identified by epoch. It reports whether a login was removed.
func (s *Session) ClearFor(ctx context.Context, epoch uint64, reason string) (bool, error) {
	return s.clear(ctx, &epoch, reason)
}

func (s *Session) clear(ctx context.Context, epoch *uint64, reason string) (bool, error) {
	s.mu.Lock()
	if epoch != nil && *epoch != s.epoch {
		s.mu.Unlock()
		s.logger.Debug("session replaced, not clearing", "reason", reason)
		return false, nil
	}
	wasEmpty := s.state.Tokens.Empty() && s.state.User == nil
	err := s.store.Clear(ctx)
	s.state = State{}
	if !wasEmpty {
		s.epoch++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("failed to clear persisted session", "error", err)
		err = domain.ErrSessionStore.WithDetails("clear").WithCause(err)
	}
	if !wasEmpty {
		s.logger.Debug("session cleared", "reason", reason)
		s.publish(Event{Kind: EventLogout, Reason: reason})
	}
	return !wasEmpty, err
}

// Reload re-reads the store and adopts its tokens when they differ from
// memory, such as after another process logged in, refreshed or logged
// out. It reports whether anything changed.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	t, err := s.store.Load(ctx)
	if err != nil {
		return false, domain.ErrSessionStore.WithDetails("reload").WithCause(err)
	}

	s.mu.Lock()
	if t == s.state.Tokens {
		s.mu.Unlock()
		return false, nil
	}
	prev := s.state.Tokens
	s.state.Tokens = t
	if t.AccessToken == "" || prev.RefreshToken != t.RefreshToken {
		// a different login; the cached user may not match
		s.state.User = nil
		s.epoch++
	}
	ev := Event{Kind: EventRefresh, State: s.copyLocked(), Reason: "external"}
	if t.Empty() {
		ev = Event{Kind: EventLogout, Reason: "external"}
	}
	s.mu.Unlock()

	s.logger.Debug("session reloaded from store", "event", ev.Kind.String())
	s.publish(ev)
	return true, nil
}

// Subscribe registers fn for every change. Callbacks run synchronously
// on the goroutine that made the change and must not call back into
// mutating Session methods. The returned function unsubscribes.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Session) copyLocked() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}
