package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/gin-gonic/gin"
)

var timeNow = time.Now

// requestScope pulls the authenticated identity out of the request context.
// Routes behind AuthMiddleware always have one; a missing scope is a 401.
func requestScope(c *gin.Context) (models.Scope, bool) {
	scope, err := models.ScopeFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return models.Scope{}, false
	}
	return scope, true
}

func teamIdsOrFail(c *gin.Context, scope models.Scope) ([]int, bool) {
	teamIds, err := scope.TeamIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return nil, false
	}
	return teamIds, true
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		if fields := utils.ProcessValidationErrors(err); fields != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "validation failed", "errors": fields})
			return false
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return false
	}
	return true
}

// respondError maps model errors onto status codes. Not-found and not-yours
// are the same 404 on purpose.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "record not found"})
	case errors.Is(err, models.ErrorUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	}
}

func queryDate(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

func queryInt(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return &n
	}
	return nil
}
