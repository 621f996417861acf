package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/blueox/schedule/internal/board"
	"github.com/blueox/schedule/internal/session"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SessionCookie carries the signed session token.
const SessionCookie = "ox_session"

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Board          *board.Board
	DB             *gorm.DB
	Tokens         *session.Tokens
	Company        string
	Port           int
	SessionTTL     time.Duration
	ProfileTimeout time.Duration
	// RefreshInterval reloads the board in the background so writes from
	// other instances show up. Zero disables it.
	RefreshInterval time.Duration
	SecureCookie    bool
	Out             io.Writer
}

// server carries the handler dependencies.
type server struct {
	board          *board.Board
	db             *gorm.DB
	tokens         *session.Tokens
	company        string
	sessionTTL     time.Duration
	profileTimeout time.Duration
	secureCookie   bool
	now            func() time.Time
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	if err := opts.Board.Refresh(ctx); err != nil {
		log.WithError(err).Warn("dashboard: initial load failed; serving error state")
	}
	if opts.RefreshInterval > 0 {
		go refreshLoop(ctx, opts.Board, opts.RefreshInterval)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Board == nil {
		return nil, fmt.Errorf("dashboard: board is required")
	}
	if opts.DB == nil {
		return nil, fmt.Errorf("dashboard: db is required")
	}
	if opts.Tokens == nil {
		return nil, fmt.Errorf("dashboard: tokens are required")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.Company == "" {
		opts.Company = "Blue Ox Enterprises"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	s := &server{
		board:          opts.Board,
		db:             opts.DB,
		tokens:         opts.Tokens,
		company:        opts.Company,
		sessionTTL:     opts.SessionTTL,
		profileTimeout: opts.ProfileTimeout,
		secureCookie:   opts.SecureCookie,
		now:            time.Now,
	}
	registerRoutes(router, s)
	return router, nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

func refreshLoop(ctx context.Context, b *board.Board, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Refresh(ctx)
		}
	}
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Warn("dashboard: request")
		default:
			entry.Debug("dashboard: request")
		}
	}
}
