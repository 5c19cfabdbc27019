package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
	"github.com/comitanigiacomo/ascend-engine/internal/core/services"
)

type AnalyticsHandler struct {
	svc *services.AnalyticsService
}

func NewAnalyticsHandler(svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/sessions/analytics", h.Summary)
	r.GET("/sessions/stats/progress", h.Progress)
	r.GET("/sessions/stats/highest", h.Highest)
	r.GET("/sessions/stats/average", h.Average)
}

// Summary godoc
// @Summary  Overview and per-discipline breakdown
// @Tags     analytics
// @Produce  json
// @Success  200 {object} services.Summary
// @Security BearerAuth
// @Router   /sessions/analytics [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), userID)
	if err != nil {
		handleAnalyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Progress godoc
// @Summary  Overview plus weekly and monthly progress series
// @Tags     analytics
// @Produce  json
// @Param    bucket query string false "week or month; both when omitted"
// @Success  200 {object} services.ProgressReport
// @Failure  400 {object} map[string]string
// @Security BearerAuth
// @Router   /sessions/stats/progress [get]
func (h *AnalyticsHandler) Progress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	report, err := h.svc.Progress(c.Request.Context(), userID, domain.Bucketing(c.Query("bucket")))
	if err != nil {
		handleAnalyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Highest renders every discipline; one without sessions maps to null.
func (h *AnalyticsHandler) Highest(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	highest, err := h.svc.HighestGrades(c.Request.Context(), userID)
	if err != nil {
		handleAnalyticsError(c, err)
		return
	}

	out := make(map[domain.Discipline]*string, len(domain.Disciplines))
	for _, d := range domain.Disciplines {
		out[d] = nil
		if g, ok := highest[d]; ok {
			label := g.Label()
			out[d] = &label
		}
	}

	c.JSON(http.StatusOK, gin.H{"highest_grades": out})
}

// Average renders every discipline; one without sessions maps to null.
func (h *AnalyticsHandler) Average(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	averages, err := h.svc.AverageGrades(c.Request.Context(), userID)
	if err != nil {
		handleAnalyticsError(c, err)
		return
	}

	out := make(map[domain.Discipline]domain.Metric, len(domain.Disciplines))
	for _, d := range domain.Disciplines {
		out[d] = domain.NoData
		if avg, ok := averages[d]; ok {
			out[d] = domain.MetricOf(avg)
		}
	}

	c.JSON(http.StatusOK, gin.H{"average_grades": out})
}
