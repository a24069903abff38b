package main

import (
	"net/http"

	"bitbucket.org/princerto/rto_backend/models"
	"github.com/gin-gonic/gin"
)

func listLicensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		teamIds, ok := teamIdsOrFail(c, scope)
		if !ok {
			return
		}
		filter := models.LicenseFilter{
			Search:   c.Query("search"),
			FromDate: queryDate(c, "from_date"),
			ToDate:   queryDate(c, "to_date"),
		}
		licenses, err := models.ListLicenses(c.Request.Context(), teamIds, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, licenses)
	}
}

func createLicenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var input models.NewLicense
		if !bindJSON(c, &input) {
			return
		}
		license, err := models.CreateLicense(c.Request.Context(), scope.UserID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, license)
	}
}

func updateLicenseHandler() gin.HandlerFunc {
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
		var input models.NewLicense
		if !bindJSON(c, &input) {
			return
		}
		license, err := models.UpdateLicense(c.Request.Context(), teamIds, id, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, license)
	}
}

func deleteLicenseHandler() gin.HandlerFunc {
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
		if err := models.DeleteLicense(c.Request.Context(), teamIds, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}
