package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/ascend-engine/internal/core/analytics"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

type queryParamError struct {
	param string
	err   error
}

func (e *queryParamError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %v", e.param, e.err)
}

func (e *queryParamError) Unwrap() error { return e.err }

func badField(c *gin.Context, field string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"field":   field,
		"details": err.Error(),
	})
}

func handleError(c *gin.Context, err error) {
	var gradeErr *domain.InvalidGradeError
	var dateErr *domain.InvalidDateError
	var paramErr *queryParamError

	switch {
	case errors.As(err, &gradeErr):
		badField(c, "grade", err)

	case errors.As(err, &dateErr):
		badField(c, "date", err)

	case errors.Is(err, domain.ErrInvalidDiscipline):
		badField(c, "discipline", err)

	case errors.Is(err, analytics.ErrInvalidBucketing):
		badField(c, "bucket", err)

	case errors.As(err, &paramErr):
		badField(c, paramErr.param, err)

	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrSessionConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please sync",
		})

	default:
		internalError(c, err)
	}
}

// handleAnalyticsError differs from handleError in one case: an invalid grade
// coming out of an aggregation means a stored record is corrupt, which is a
// server fault rather than a bad request.
func handleAnalyticsError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidGrade) {
		internalError(c, err)
		return
	}
	handleError(c, err)
}

func internalError(c *gin.Context, err error) {
	log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
