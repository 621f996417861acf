// Package session resolves who is signed in and with which role. A Provider
// owns credentials; a Gate turns provider events into a single AuthState.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/blueox/schedule/internal/models"
)

// Session is an authenticated identity.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider is the identity backend seen by a Gate.
type Provider interface {
	// CurrentSession returns the active session, or nil when signed out.
	CurrentSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// OnChange registers fn for sign-in and sign-out events. fn receives
	// nil on sign-out.
	OnChange(fn func(*Session)) (cancel func())
	// Profile returns the role profile of userID, or nil when it has none.
	Profile(ctx context.Context, userID string) (*models.Profile, error)
}

// MsgSessionUnavailable is shown when a session could not be looked up.
const MsgSessionUnavailable = "Could not load session"

// AuthError reports a failed sign-in or session lookup. Message is safe to
// show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProfileError is a failed or timed-out role lookup. It is never shown to
// users; the role falls back to viewer.
type ProfileError struct {
	UserID string
	Err    error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("session: profile %s: %v", e.UserID, e.Err)
}

func (e *ProfileError) Unwrap() error { return e.Err }
