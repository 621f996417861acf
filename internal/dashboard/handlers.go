package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blueox/schedule/internal/board"
	"github.com/blueox/schedule/internal/schedule"
	"github.com/blueox/schedule/internal/session"
	"github.com/blueox/schedule/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Deadline list defaults for /api/deadlines and the index page.
const (
	defaultDeadlineDays  = 14
	defaultDeadlineLimit = 10
)

func (s *server) handleIndex(c *gin.Context) {
	st := authState(c)
	state := schedule.ParseTableState(c.Request.URL.Query())
	data := gin.H{
		"Company":  s.company,
		"Email":    st.Session.Email,
		"Role":     string(st.Role),
		"Caps":     schedule.CapabilitiesFor(st.Role),
		"Sheets":   schedule.Sheets,
		"Statuses": schedule.StatusCodes,
		"Default":  schedule.DefaultSheet,
	}

	view, err := s.board.Table(state)
	if err != nil {
		data["Error"] = board.FetchMessage
		c.HTML(http.StatusServiceUnavailable, "layout.html", data)
		return
	}
	stats, _ := s.board.Stats()
	deadlines, _ := s.board.Deadlines(s.now(), defaultDeadlineDays, defaultDeadlineLimit)
	progress, _ := s.board.Progress()

	data["Stats"] = stats
	data["Table"] = view
	data["Deadlines"] = deadlines
	data["Progress"] = progress
	c.HTML(http.StatusOK, "layout.html", data)
}

func (s *server) handleMe(c *gin.Context) {
	st := authState(c)
	c.JSON(http.StatusOK, gin.H{
		"id":           st.Session.UserID,
		"email":        st.Session.Email,
		"role":         st.Role,
		"capabilities": schedule.CapabilitiesFor(st.Role),
		"expiresAt":    st.Session.ExpiresAt,
	})
}

func (s *server) handleStats(c *gin.Context) {
	stats, err := s.board.Stats()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (s *server) handleCharts(c *gin.Context) {
	charts, err := s.board.Charts()
	if err != nil {
		writeError(c, err)
		return
	}
	progress, _ := s.board.Progress()
	revenue, _ := s.board.Revenue()
	c.JSON(http.StatusOK, gin.H{
		"charts":   charts,
		"progress": progress,
		"revenue":  revenue,
	})
}

func (s *server) handleDeadlines(c *gin.Context) {
	days := queryInt(c, "days", defaultDeadlineDays)
	limit := queryInt(c, "limit", defaultDeadlineLimit)
	deadlines, err := s.board.Deadlines(s.now(), days, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if deadlines == nil {
		deadlines = []schedule.Deadline{}
	}
	c.JSON(http.StatusOK, gin.H{"deadlines": deadlines, "days": days})
}

func (s *server) handleTasks(c *gin.Context) {
	view, err := s.board.Table(schedule.ParseTableState(c.Request.URL.Query()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *server) handleAddTask(c *gin.Context) {
	var in store.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := s.board.Add(c.Request.Context(), actorFor(c), in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": s.board.Version()})
}

func (s *server) handleUpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var in store.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := s.board.Update(c.Request.Context(), actorFor(c), id, in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": s.board.Version()})
}

func (s *server) handleDeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := s.board.Delete(c.Request.Context(), actorFor(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": s.board.Version()})
}

type roleRequest struct {
	Role string `json:"role"`
}

func (s *server) handleSetRole(c *gin.Context) {
	if !schedule.CanManageUsers(authState(c).Role) {
		writeError(c, board.ErrForbidden)
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	err := session.SetRole(c.Request.Context(), s.db, c.Param("id"), schedule.Role(req.Role))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "role": req.Role})
	case errors.Is(err, session.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
	case errors.Is(err, session.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		log.WithError(err).Error("dashboard: set role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update role"})
	}
}

// writeError maps board and store errors to a status and a user-facing
// message.
func writeError(c *gin.Context, err error) {
	var fetchErr *board.DataFetchError
	var mutErr *board.MutationError
	switch {
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": board.FetchMessage})
	case errors.As(err, &mutErr):
		log.WithError(err).Warn("dashboard: mutation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": board.MutationMessage})
	case errors.Is(err, board.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": board.ValidationMessage(err)})
	case errors.Is(err, board.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Your role does not allow this"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, store.ErrReadOnly):
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "This schedule is read-only"})
	default:
		log.WithError(err).Error("dashboard: request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func taskID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return 0, false
	}
	return uint(n), true
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
