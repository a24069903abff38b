package main

import (
	"net/http"

	"bitbucket.org/princerto/rto_backend/models"
	"github.com/gin-gonic/gin"
)

// --- super-admin user management ---

func listUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := models.ListAgentUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if !bindJSON(c, &input) {
			return
		}
		user, err := models.CreateAgentUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func updateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdateUser
		if !bindJSON(c, &input) {
			return
		}
		user, err := models.UpdateAgentUser(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func toggleUserStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		user, err := models.ToggleUserStatus(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func deleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if id == scope.UserID {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "cannot delete your own account"})
			return
		}
		if err := models.DeleteAgentUser(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// --- boss staff management ---

func listStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		if !scope.IsBoss() {
			c.JSON(http.StatusForbidden, gin.H{"message": "permission denied"})
			return
		}
		staff, err := models.ListStaff(c.Request.Context(), scope.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, staff)
	}
}

func createStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		if !scope.IsBoss() {
			c.JSON(http.StatusForbidden, gin.H{"message": "permission denied"})
			return
		}
		var input models.NewStaff
		if !bindJSON(c, &input) {
			return
		}
		staff, err := models.CreateStaff(c.Request.Context(), scope.UserID, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, staff)
	}
}

func deleteStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		if !scope.IsBoss() {
			c.JSON(http.StatusForbidden, gin.H{"message": "permission denied"})
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := models.DeleteStaff(c.Request.Context(), scope.UserID, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}
