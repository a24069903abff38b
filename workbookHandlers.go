package main

import (
	"fmt"
	"net/http"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"bitbucket.org/princerto/rto_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- clients ---

func listClientsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		clients, err := models.ListClients(c.Request.Context(), scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, clients)
	}
}

func createClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var input models.NewClient
		if !bindJSON(c, &input) {
			return
		}
		client, err := models.CreateClient(c.Request.Context(), scope.OwnerID(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, client)
	}
}

func updateClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewClient
		if !bindJSON(c, &input) {
			return
		}
		client, err := models.UpdateClient(c.Request.Context(), scope.OwnerID(), id, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

func deleteClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := models.DeleteClient(c.Request.Context(), scope.OwnerID(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// --- jobs ---

func workBookDashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		teamIds, ok := teamIdsOrFail(c, scope)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		summaries, err := models.ClientSummaries(ctx, scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		allTime, err := models.WorkBookTotalsForTeam(ctx, teamIds, nil)
		if err != nil {
			respondError(c, err)
			return
		}
		today := utils.DateOnly(timeNow())
		todayTotals, err := models.WorkBookTotalsForTeam(ctx, teamIds, &today)
		if err != nil {
			respondError(c, err)
			return
		}
		jobs, err := models.ListWorkJobs(ctx, teamIds, queryDate(c, "from_date"), queryDate(c, "to_date"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"clients":  summaries,
			"jobs":     jobs,
			"all_time": allTime,
			"today":    todayTotals,
		})
	}
}

func createWorkJobHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var input models.NewWorkJob
		if !bindJSON(c, &input) {
			return
		}
		job, err := models.CreateWorkJob(c.Request.Context(), scope.OwnerID(), scope.UserID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, job)
	}
}

func updateWorkJobHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		teamIds, ok := teamIdsOrFail(c, scope)
		if !ok {
			return
		}
		var input models.NewWorkJob
		if !bindJSON(c, &input) {
			return
		}
		job, err := models.UpdateWorkJob(c.Request.Context(), teamIds, id, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

func deleteWorkJobHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		teamIds, ok := teamIdsOrFail(c, scope)
		if !ok {
			return
		}
		if err := models.DeleteWorkJob(c.Request.Context(), teamIds, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

func clientHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		client, err := models.GetClientById(ctx, scope.OwnerID(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		history, err := models.ClientHistory(ctx, client.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		due, err := models.ClientDue(ctx, client.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"client": client, "history": history, "due": due})
	}
}

// --- settlement ---

type settlePaymentRequest struct {
	ClientId int             `json:"client_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

func settlePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var req settlePaymentRequest
		if !bindJSON(c, &req) {
			return
		}
		logger := config.GetLogger()
		result, err := workflow.ProcessClientPayment(c.Request.Context(), logger,
			scope.OwnerID(), scope.UserID, req.ClientId, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// duesReminderHandler messages a client their outstanding total.
func duesReminderHandler() gin.HandlerFunc {
	sender := utils.NewWhatsAppSender()
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		client, err := models.GetClientById(ctx, scope.OwnerID(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if client.MobileNumber == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "client has no mobile number"})
			return
		}
		due, err := models.ClientDue(ctx, client.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !due.IsPositive() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "client has no pending dues"})
			return
		}
		boss, err := models.GetUserById(ctx, scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		if boss.WhatsappKey == "" || boss.WhatsappHost == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "whatsapp is not configured"})
			return
		}

		message := fmt.Sprintf("Dear %s,\n\nYour total pending amount is ₹%s.\n\nKindly clear it at the earliest.\n\n- %s",
			client.Name, due.StringFixed(2), boss.Name)
		err = sender.SendTextMessage(ctx, client.MobileNumber, message, boss.WhatsappKey, boss.WhatsappHost)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "reminder sent"})
	}
}
