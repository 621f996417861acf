package dashboard

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, s *server) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/login", s.handleLoginPage)
	router.POST("/login", s.handleLogin)

	authed := router.Group("/", s.requireSession())
	authed.POST("/logout", s.handleLogout)
	authed.GET("/", s.handleIndex)

	api := authed.Group("/api")
	api.GET("/me", s.handleMe)
	api.GET("/stats", s.handleStats)
	api.GET("/charts", s.handleCharts)
	api.GET("/deadlines", s.handleDeadlines)
	api.GET("/tasks", s.handleTasks)
	api.POST("/tasks", s.handleAddTask)
	api.PUT("/tasks/:id", s.handleUpdateTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)
	api.PUT("/profiles/:id/role", s.handleSetRole)
	api.GET("/events", s.handleSSE)
}
