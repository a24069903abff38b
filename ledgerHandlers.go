package main

import (
	"fmt"
	"net/http"

	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/gin-gonic/gin"
)

func ledgerDashboardHandler() gin.HandlerFunc {
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

		accounts, err := models.ListLedgerAccounts(ctx, scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		latest, err := models.LatestLedgerEntries(ctx, teamIds, 50)
		if err != nil {
			respondError(c, err)
			return
		}
		allTime, err := models.LedgerTotalsForTeam(ctx, teamIds, nil)
		if err != nil {
			respondError(c, err)
			return
		}
		today := utils.DateOnly(timeNow())
		todayTotals, err := models.LedgerTotalsForTeam(ctx, teamIds, &today)
		if err != nil {
			respondError(c, err)
			return
		}

		// Latest entries carry the balance the book stood at before each one.
		rows := models.RunningBalances(latest, allTime.Net)

		c.JSON(http.StatusOK, gin.H{
			"accounts": accounts,
			"entries":  rows,
			"all_time": allTime,
			"today":    todayTotals,
		})
	}
}

func createLedgerAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var input models.NewLedgerAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := models.CreateLedgerAccount(c.Request.Context(), scope.OwnerID(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	}
}

func updateLedgerAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewLedgerAccount
		if !bindJSON(c, &input) {
			return
		}
		account, err := models.UpdateLedgerAccount(c.Request.Context(), scope.OwnerID(), id, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

func deleteLedgerAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := models.DeleteLedgerAccount(c.Request.Context(), scope.OwnerID(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

func createLedgerEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var input models.NewLedgerEntry
		if !bindJSON(c, &input) {
			return
		}
		if input.LedgerAccountId != nil {
			if _, err := models.GetLedgerAccountById(c.Request.Context(), scope.OwnerID(), *input.LedgerAccountId); err != nil {
				respondError(c, err)
				return
			}
		}
		entry, err := models.CreateLedgerEntry(c.Request.Context(), scope.UserID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

func deleteLedgerEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
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
		if err := models.DeleteLedgerEntry(c.Request.Context(), teamIds, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

func searchLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		teamIds, ok := teamIdsOrFail(c, scope)
		if !ok {
			return
		}
		filter := models.LedgerSearchFilter{
			AccountId: queryInt(c, "account_id"),
			DateFrom:  queryDate(c, "from_date"),
			DateUpto:  queryDate(c, "to_date"),
			Keyword:   c.Query("keyword"),
		}
		rows, totals, err := models.SearchLedgerEntries(c.Request.Context(), teamIds, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": rows, "totals": totals})
	}
}

// ledgerReminderHandler messages an account their current balance: negative
// means DUE, positive means ADVANCE.
func ledgerReminderHandler() gin.HandlerFunc {
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

		account, err := models.GetLedgerAccountById(ctx, scope.OwnerID(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if account.MobileNumber == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "account has no mobile number"})
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

		balance, err := models.AccountBalance(ctx, account.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		var message string
		if balance.IsNegative() {
			message = fmt.Sprintf("Dear %s,\n\nYour current outstanding balance is ₹%s (DUE).\n\nKindly clear it at the earliest.\n\n- %s",
				account.Name, balance.Neg().StringFixed(2), boss.Name)
		} else {
			message = fmt.Sprintf("Dear %s,\n\nYour current balance is ₹%s (ADVANCE).\n\n- %s",
				account.Name, balance.StringFixed(2), boss.Name)
		}

		err = sender.SendTextMessage(ctx, account.MobileNumber, message, boss.WhatsappKey, boss.WhatsappHost)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "reminder sent"})
	}
}
