package main

import (
	"net/http"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}

		user, err := models.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
			return
		}
		if err := utils.ComparePassword(user.Password, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
			return
		}
		if user.IsActive != nil && !*user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"message": "account is deactivated"})
			return
		}

		token, err := utils.JwtGenerate(user.ID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not issue token"})
			return
		}

		// Best-effort session record so ops can see active logins.
		_ = config.SetRedisValue("session:"+token, user.Email, 24*time.Hour)

		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := utils.GetTokenFromContext(c.Request.Context()); ok {
			_ = config.RemoveRedisKey("session:" + token)
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		user, err := models.GetUserById(c.Request.Context(), scope.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
