package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/ascend-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
	"github.com/comitanigiacomo/ascend-engine/internal/core/services"
)

type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{
		svc: svc,
	}
}

type createSessionRequest struct {
	Discipline string  `json:"discipline" binding:"required"`
	Grade      string  `json:"grade" binding:"required"`
	Date       string  `json:"date" binding:"required"`
	Sent       bool    `json:"sent"`
	Notes      *string `json:"notes"`
}

type replaceSessionRequest struct {
	Discipline string  `json:"discipline" binding:"required"`
	Grade      string  `json:"grade" binding:"required"`
	Date       string  `json:"date" binding:"required"`
	Sent       bool    `json:"sent"`
	Notes      *string `json:"notes"`
	Version    int     `json:"version"`
}

type patchSessionRequest struct {
	Discipline *string `json:"discipline"`
	Grade      *string `json:"grade"`
	Date       *string `json:"date"`
	Sent       *bool   `json:"sent"`
	Notes      *string `json:"notes"`
	ClearNotes bool    `json:"clear_notes"`
	Version    int     `json:"version"`
}

// RegisterPublicRoutes mounts the endpoints that need no caller identity.
func (h *SessionHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.GET("/sessions/grades/:discipline", h.Grades)
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)
		sessions.GET("/sync", h.Sync)
		sessions.GET("/:id", h.Get)
		sessions.PUT("/:id", h.Replace)
		sessions.PATCH("/:id", h.Patch)
		sessions.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @Summary  Log a climbing session
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    session body createSessionRequest true "Session"
// @Success  201 {object} domain.Session
// @Failure  400 {object} map[string]string
// @Security BearerAuth
// @Router   /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := h.svc.Create(c.Request.Context(), services.CreateSessionInput{
		UserID:     userID,
		Discipline: req.Discipline,
		Grade:      req.Grade,
		Date:       req.Date,
		Sent:       req.Sent,
		Notes:      req.Notes,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// List godoc
// @Summary  List sessions
// @Tags     sessions
// @Produce  json
// @Param    discipline query string false "BOULDER, LEAD or TOPROPE"
// @Param    date       query string false "Exact date (YYYY-MM-DD)"
// @Param    from       query string false "Range start, inclusive"
// @Param    to         query string false "Range end, inclusive"
// @Param    q          query string false "Search in grade and notes"
// @Param    limit      query int    false "Page size"
// @Param    offset     query int    false "Page offset"
// @Success  200 {array} domain.Session
// @Security BearerAuth
// @Router   /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	filter, err := parseSessionFilter(c)
	if err != nil {
		handleError(c, err)
		return
	}

	list, err := h.svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	session, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Replace(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req replaceSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := h.svc.Replace(c.Request.Context(), services.ReplaceSessionInput{
		ID:         c.Param("id"),
		UserID:     userID,
		Discipline: req.Discipline,
		Grade:      req.Grade,
		Date:       req.Date,
		Sent:       req.Sent,
		Notes:      req.Notes,
		Version:    req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Patch(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req patchSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := h.svc.Patch(c.Request.Context(), services.PatchSessionInput{
		ID:         c.Param("id"),
		UserID:     userID,
		Discipline: req.Discipline,
		Grade:      req.Grade,
		Date:       req.Date,
		Sent:       req.Sent,
		Notes:      req.Notes,
		ClearNotes: req.ClearNotes,
		Version:    req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Sync(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sinceStr := c.Query("since")
	var since time.Time

	if sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (use RFC3339)", "field": "since"})
			return
		}
	}

	changes, err := h.svc.GetDelta(c.Request.Context(), userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}

// Grades godoc
// @Summary  Grade vocabulary for a discipline, easiest first
// @Tags     grades
// @Produce  json
// @Param    discipline path string true "BOULDER, LEAD or TOPROPE"
// @Success  200 {object} services.GradeVocabulary
// @Failure  400 {object} map[string]string
// @Router   /sessions/grades/{discipline} [get]
func (h *SessionHandler) Grades(c *gin.Context) {
	vocab, err := h.svc.Grades(c.Param("discipline"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, vocab)
}

func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

func parseSessionFilter(c *gin.Context) (domain.SessionFilter, error) {
	var filter domain.SessionFilter
	var err error

	if v := c.Query("discipline"); v != "" {
		if filter.Discipline, err = domain.ParseDiscipline(v); err != nil {
			return filter, err
		}
	}
	if v := c.Query("date"); v != "" {
		if filter.Date, err = domain.ParseDate(v); err != nil {
			return filter, err
		}
	}
	if v := c.Query("from"); v != "" {
		if filter.From, err = domain.ParseDate(v); err != nil {
			return filter, err
		}
	}
	if v := c.Query("to"); v != "" {
		if filter.To, err = domain.ParseDate(v); err != nil {
			return filter, err
		}
	}
	filter.Search = c.Query("q")

	if v := c.Query("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			return filter, &queryParamError{param: "limit", err: err}
		}
	}
	if v := c.Query("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			return filter, &queryParamError{param: "offset", err: err}
		}
	}

	return filter, nil
}
