package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/blueox/schedule/internal/board"
	"github.com/blueox/schedule/internal/session"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const authKey = "auth"

// loginErrorSession flags a failed session lookup on the login page.
const loginErrorSession = "session"

// gateFor builds a Gate over a Client seeded with the request's cookie.
func (s *server) gateFor(c *gin.Context) (*session.Gate, *session.Client) {
	token, _ := c.Cookie(SessionCookie)
	client := session.NewClient(s.db, s.tokens, token)
	return session.NewGate(client, s.profileTimeout), client
}

// requireSession resolves the caller's session. Pages redirect to the login
// form; API calls get 401.
func (s *server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		gate, _ := s.gateFor(c)
		defer gate.Close()
		gate.Start(c.Request.Context())

		st, err := gate.Wait(c.Request.Context())
		if err == nil && st.Status != session.StatusAuthenticated && st.Err != nil {
			// The token may be fine; keep it and report the lookup failure.
			log.WithError(st.Err).Warn("dashboard: session lookup failed")
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authMessage(st.Err)})
				return
			}
			c.Redirect(http.StatusSeeOther, "/login?error="+loginErrorSession)
			c.Abort()
			return
		}
		if err != nil || st.Status != session.StatusAuthenticated {
			s.clearCookie(c)
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
				return
			}
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set(authKey, st)
		c.Next()
	}
}

func authState(c *gin.Context) session.AuthState {
	v, _ := c.Get(authKey)
	st, _ := v.(session.AuthState)
	return st
}

func actorFor(c *gin.Context) board.Actor {
	st := authState(c)
	a := board.Actor{Role: st.Role}
	if st.Session != nil {
		a.UserID = st.Session.UserID
	}
	return a
}

func (s *server) setCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.sessionTTL.Seconds()), "/", "", s.secureCookie, true)
}

func (s *server) clearCookie(c *gin.Context) {
	if _, err := c.Cookie(SessionCookie); err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", s.secureCookie, true)
}

func (s *server) handleLoginPage(c *gin.Context) {
	data := gin.H{"Company": s.company, "Email": ""}
	if c.Query("error") == loginErrorSession {
		data["Error"] = session.MsgSessionUnavailable
	}
	c.HTML(http.StatusOK, "login.html", data)
}

func authMessage(err error) string {
	var ae *session.AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return session.MsgSessionUnavailable
}

func (s *server) handleLogin(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	gate, client := s.gateFor(c)
	defer gate.Close()
	gate.Start(c.Request.Context())

	if err := gate.SignIn(c.Request.Context(), email, password); err != nil {
		msg := "Sign-in failed"
		var ae *session.AuthError
		if errors.As(err, &ae) {
			msg = ae.Message
		}
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Company": s.company,
			"Email":   email,
			"Error":   msg,
		})
		return
	}
	s.setCookie(c, client.Token())
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *server) handleLogout(c *gin.Context) {
	gate, _ := s.gateFor(c)
	defer gate.Close()
	gate.Start(c.Request.Context())
	gate.SignOut(c.Request.Context())
	s.clearCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}
