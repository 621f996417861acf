package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blueox/schedule/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// compareHash is bcrypt's check; swapped in tests.
var compareHash = bcrypt.CompareHashAndPassword

// dummyHash is checked against when the email is unknown, so both failure
// paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("ox-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("session: dummy hash: %v", err))
	}
	return h
})

// Client is a Provider for one browser. It holds that browser's token, which
// the HTTP layer seeds from and writes back to the session cookie.
type Client struct {
	db     *gorm.DB
	tokens *Tokens

	mu     sync.Mutex
	token  string
	subs   map[int]func(*Session)
	nextID int
}

// NewClient returns a Client starting from token, which may be empty.
func NewClient(db *gorm.DB, tokens *Tokens, token string) *Client {
	return &Client{db: db, tokens: tokens, token: token, subs: make(map[int]func(*Session))}
}

// Token returns the current token; empty after sign-out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// CurrentSession verifies the held token. Invalid or expired tokens and
// tokens of deleted users read as signed out.
func (c *Client) CurrentSession(ctx context.Context) (*Session, error) {
	raw := c.Token()
	if raw == "" {
		return nil, nil
	}
	claims, err := c.tokens.Verify(raw)
	if err != nil {
		log.WithError(err).Debug("session: discarding token")
		return nil, nil
	}
	var user models.User
	if err := c.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, &AuthError{Message: MsgSessionUnavailable, Err: err}
	}
	return &Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     raw,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignIn checks the password against the stored bcrypt hash and, on
// success, replaces the held token and notifies subscribers.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	var user models.User
	err := c.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = compareHash(dummyHash(), []byte(password))
		return nil, &AuthError{Message: "Invalid email or password"}
	}
	if err != nil {
		return nil, &AuthError{Message: "Sign-in failed", Err: err}
	}
	if err := compareHash([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, &AuthError{Message: "Invalid email or password"}
	}

	raw, expires, err := c.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, &AuthError{Message: "Sign-in failed", Err: err}
	}
	sess := &Session{UserID: user.ID, Email: user.Email, Token: raw, ExpiresAt: expires}

	c.mu.Lock()
	c.token = raw
	c.mu.Unlock()
	c.notify(sess)
	return sess, nil
}

// SignOut forgets the held token and notifies subscribers.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.notify(nil)
	return nil
}

// OnChange registers fn for sign-in and sign-out events.
func (c *Client) OnChange(fn func(*Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Profile returns the role profile for userID, or nil if none exists.
func (c *Client) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := c.db.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load profile %s: %w", userID, err)
	}
	return &p, nil
}

func (c *Client) notify(s *Session) {
	c.mu.Lock()
	fns := make([]func(*Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// NormalizeEmail trims and lower-cases an address for lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
