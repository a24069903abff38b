package main

import (
	"net/http"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Citizens are boss-owned master data; staff get read access only.
func requireBoss(c *gin.Context, scope models.Scope) bool {
	if scope.IsBoss() {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"message": "permission denied"})
	return false
}

func listCitizensHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		citizens, err := models.ListCitizens(c.Request.Context(), scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, citizens)
	}
}

func createCitizenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
			return
		}
		var input models.NewCitizen
		if !bindJSON(c, &input) {
			return
		}
		citizen, err := models.CreateCitizen(c.Request.Context(), scope.OwnerID(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, citizen)
	}
}

func getCitizenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		citizen, err := models.GetCitizenById(c.Request.Context(), scope.OwnerID(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, citizen)
	}
}

func updateCitizenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewCitizen
		if !bindJSON(c, &input) {
			return
		}
		citizen, err := models.UpdateCitizen(c.Request.Context(), scope.OwnerID(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, citizen)
	}
}

func deleteCitizenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok || !requireBoss(c, scope) {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := models.DeleteCitizen(c.Request.Context(), scope.OwnerID(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// quickEntryHandler is the one-screen intake: citizen by (owner, mobile),
// vehicle by registration, and a fresh PUCC record, all in one transaction.
type quickEntryRequest struct {
	Name           string `json:"name" binding:"required"`
	MobileNumber   string `json:"mobile_number" binding:"required"`
	RegistrationNo string `json:"registration_no" binding:"required"`
	ValidFrom      string `json:"valid_from"`
	ValidUntil     string `json:"valid_until" binding:"required"`
}

func quickEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var req quickEntryRequest
		if !bindJSON(c, &req) {
			return
		}
		validUntil, err := time.Parse("2006-01-02", req.ValidUntil)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "valid_until must be YYYY-MM-DD"})
			return
		}
		var validFrom *time.Time
		if from, err := time.Parse("2006-01-02", req.ValidFrom); err == nil {
			validFrom = &from
		}

		db := config.GetDB()
		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			citizen, err := models.FindOrCreateCitizenByMobile(tx, scope.OwnerID(), req.MobileNumber, req.Name)
			if err != nil {
				return err
			}
			vehicle, err := models.FindOrReassignVehicle(tx, citizen.ID, utils.NormalizeRegistrationNo(req.RegistrationNo))
			if err != nil {
				return err
			}
			return tx.Create(&models.Pucc{
				VehicleId:  vehicle.ID,
				ValidFrom:  validFrom,
				ValidUntil: validUntil,
			}).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "entry saved and linked"})
	}
}

func dashboardStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		ownerId := scope.OwnerID()

		totalCitizens, err := models.CountCitizens(ctx, ownerId)
		if err != nil {
			respondError(c, err)
			return
		}
		totalVehicles, err := models.CountVehicles(ctx, ownerId)
		if err != nil {
			respondError(c, err)
			return
		}
		ledger, err := models.LedgerTotalsForUsers(ctx, []int{scope.UserID})
		if err != nil {
			respondError(c, err)
			return
		}
		workDues, err := models.TotalDueForOwner(ctx, ownerId)
		if err != nil {
			respondError(c, err)
			return
		}

		// Fixed 15-day window, independent of notification settings.
		today := utils.DateOnly(time.Now())
		expiringSoon, err := models.CountExpiringBetween(ctx, ownerId, today, today.AddDate(0, 0, 15))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"total_citizens": totalCitizens,
			"total_vehicles": totalVehicles,
			"ledger_balance": ledger.Net,
			"work_dues":      workDues,
			"expiring_soon":  expiringSoon,
		})
	}
}

func globalSearchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "q is required"})
			return
		}
		ctx := c.Request.Context()
		ownerId := scope.OwnerID()

		citizens, err := models.SearchCitizens(ctx, ownerId, query)
		if err != nil {
			respondError(c, err)
			return
		}
		vehicles, err := models.SearchVehicles(ctx, ownerId, query)
		if err != nil {
			respondError(c, err)
			return
		}
		teamIds, ok := teamIdsOrFail(c, scope)
		if !ok {
			return
		}
		licenses, err := models.SearchLicenses(ctx, teamIds, query)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"citizens": citizens,
			"vehicles": vehicles,
			"licenses": licenses,
		})
	}
}
