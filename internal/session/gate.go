package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/blueox/schedule/internal/models"
	"github.com/blueox/schedule/internal/schedule"
	log "github.com/sirupsen/logrus"
)

// AuthStatus is the coarse state of a Gate.
type AuthStatus string

const (
	StatusUnknown         AuthStatus = "unknown"
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusUnauthenticated AuthStatus = "unauthenticated"
)

// DefaultProfileTimeout bounds a profile lookup when none is configured.
const DefaultProfileTimeout = 3 * time.Second

// ErrMissingCredentials is returned by SignIn for an empty email or password.
var ErrMissingCredentials = &AuthError{Message: "Please enter both email and password"}

// AuthState is the value a Gate publishes.
type AuthState struct {
	Status  AuthStatus
	Session *Session
	Profile *models.Profile
	Role    schedule.Role
	Err     error
}

// Gate tracks one identity. It starts unknown and settles on authenticated
// or unauthenticated; later provider events move it between the two.
//
// Every resolution carries a generation number. A profile lookup that
// finishes after a newer event has been seen is dropped.
type Gate struct {
	provider Provider
	timeout  time.Duration

	mu       sync.Mutex
	state    AuthState
	gen      uint64
	resolved bool
	closed   bool
	subs     map[int]chan AuthState
	nextID   int
	ready    chan struct{}
	unsub    func()
}

// NewGate returns an unstarted Gate. A non-positive timeout selects
// DefaultProfileTimeout.
func NewGate(p Provider, profileTimeout time.Duration) *Gate {
	if profileTimeout <= 0 {
		profileTimeout = DefaultProfileTimeout
	}
	return &Gate{
		provider: p,
		timeout:  profileTimeout,
		state:    AuthState{Status: StatusUnknown, Role: schedule.RoleViewer},
		subs:     make(map[int]chan AuthState),
		ready:    make(chan struct{}),
	}
}

// Start listens for provider events and then runs one initial session
// check. If an event resolves the gate first the initial result is ignored.
func (g *Gate) Start(ctx context.Context) {
	unsub := g.provider.OnChange(func(s *Session) { g.handleChange(ctx, s) })
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		unsub()
		return
	}
	g.unsub = unsub
	g.mu.Unlock()

	sess, err := g.provider.CurrentSession(ctx)

	g.mu.Lock()
	if g.resolved || g.closed {
		g.mu.Unlock()
		return
	}
	g.resolved = true
	g.gen++
	gen := g.gen
	g.mu.Unlock()

	if err != nil {
		g.publish(gen, AuthState{Status: StatusUnauthenticated, Role: schedule.RoleViewer, Err: asAuthError(err)})
		return
	}
	g.resolve(ctx, gen, sess)
}

// State returns the current state.
func (g *Gate) State() AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Subscribe returns a channel that receives the current state immediately
// and then every change. Only the latest unread state is kept. The cancel
// func closes the channel.
func (g *Gate) Subscribe() (<-chan AuthState, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := make(chan AuthState, 1)
	if g.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- g.state
	id := g.nextID
	g.nextID++
	g.subs[id] = ch

	return ch, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if c, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(c)
		}
	}
}

// Wait blocks until the gate leaves the unknown state or ctx ends.
func (g *Gate) Wait(ctx context.Context) (AuthState, error) {
	select {
	case <-g.ready:
		return g.State(), nil
	case <-ctx.Done():
		return g.State(), ctx.Err()
	}
}

// SignIn authenticates through the provider. Empty fields fail without
// contacting the provider and leave the state unchanged.
func (g *Gate) SignIn(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingCredentials
	}

	sess, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		authErr := asAuthError(err)
		g.advance(func(gen uint64) {
			g.publish(gen, AuthState{Status: StatusUnauthenticated, Role: schedule.RoleViewer, Err: authErr})
		})
		return authErr
	}

	// The provider's change event usually lands first.
	cur := g.State()
	if cur.Status == StatusAuthenticated && cur.Session != nil && cur.Session.Token == sess.Token {
		return nil
	}
	g.advance(func(gen uint64) { g.resolve(ctx, gen, sess) })
	return nil
}

// SignOut signs out through the provider. The gate always ends
// unauthenticated; provider errors are only logged.
func (g *Gate) SignOut(ctx context.Context) {
	if err := g.provider.SignOut(ctx); err != nil {
		log.WithError(err).Warn("session: provider sign-out failed")
	}
	g.advance(func(gen uint64) {
		g.publish(gen, AuthState{Status: StatusUnauthenticated, Role: schedule.RoleViewer})
	})
}

// Close stops provider notifications and closes every subscription. No
// further states are published.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	for id, ch := range g.subs {
		delete(g.subs, id)
		close(ch)
	}
	unsub := g.unsub
	g.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (g *Gate) handleChange(ctx context.Context, s *Session) {
	g.advance(func(gen uint64) {
		if s == nil {
			g.publish(gen, AuthState{Status: StatusUnauthenticated, Role: schedule.RoleViewer})
			return
		}
		g.resolve(ctx, gen, s)
	})
}

// advance marks the gate resolved, starts a new generation and runs fn
// with it. It does nothing once the gate is closed.
func (g *Gate) advance(fn func(gen uint64)) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.resolved = true
	g.gen++
	gen := g.gen
	g.mu.Unlock()
	fn(gen)
}

// resolve looks up the role for sess and publishes the authenticated state.
func (g *Gate) resolve(ctx context.Context, gen uint64, sess *Session) {
	if sess == nil {
		g.publish(gen, AuthState{Status: StatusUnauthenticated, Role: schedule.RoleViewer})
		return
	}
	profile, err := g.lookupProfile(ctx, sess.UserID)
	role := schedule.RoleViewer
	if err != nil {
		log.WithError(&ProfileError{UserID: sess.UserID, Err: err}).Debug("session: using viewer role")
		profile = nil
	} else if profile != nil {
		role = schedule.ParseRole(profile.Role)
	}
	g.publish(gen, AuthState{Status: StatusAuthenticated, Session: sess, Profile: profile, Role: role})
}

type profileResult struct {
	profile *models.Profile
	err     error
}

// lookupProfile returns once the provider answers or the timeout expires,
// whichever is first.
func (g *Gate) lookupProfile(ctx context.Context, userID string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ch := make(chan profileResult, 1)
	go func() {
		p, err := g.provider.Profile(ctx, userID)
		ch <- profileResult{p, err}
	}()

	select {
	case r := <-ch:
		return r.profile, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// publish installs st if gen is still current and fans it out.
func (g *Gate) publish(gen uint64, st AuthState) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || gen != g.gen {
		return false
	}
	g.state = st
	if st.Status != StatusUnknown {
		select {
		case <-g.ready:
		default:
			close(g.ready)
		}
	}
	for _, ch := range g.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
	return true
}

func asAuthError(err error) error {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return &AuthError{Message: "Sign-in failed", Err: err}
}
