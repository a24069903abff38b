package main

import (
	"net/http"

	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/gin-gonic/gin"
)

func getNotificationSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		settings, err := models.GetNotificationSettings(c.Request.Context(), scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func saveNotificationSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
			return
		}
		var input models.NewNotificationSettings
		if !bindJSON(c, &input) {
			return
		}
		settings, err := models.SaveNotificationSettings(c.Request.Context(), scope.OwnerID(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

type testWhatsAppRequest struct {
	MobileNumber string `json:"mobile_number" binding:"required"`
}

// testWhatsAppHandler sends a probe message with the boss's credentials so
// setup problems surface before the nightly sweep does.
func testWhatsAppHandler() gin.HandlerFunc {
	sender := utils.NewWhatsAppSender()
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var req testWhatsAppRequest
		if !bindJSON(c, &req) {
			return
		}
		boss, err := models.GetUserById(c.Request.Context(), scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		if boss.WhatsappKey == "" || boss.WhatsappHost == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "whatsapp is not configured"})
			return
		}
		err = sender.SendTextMessage(c.Request.Context(), req.MobileNumber,
			"Test message from "+boss.Name+". Your WhatsApp setup is working.",
			boss.WhatsappKey, boss.WhatsappHost)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "test message sent"})
	}
}
