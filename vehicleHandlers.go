package main

import (
	"net/http"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"github.com/gin-gonic/gin"
)

func listVehiclesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		citizenId, ok := idParam(c)
		if !ok {
			return
		}
		citizen, err := models.GetCitizenById(c.Request.Context(), scope.OwnerID(), citizenId)
		if err != nil {
			respondError(c, err)
			return
		}

		db := config.GetDB()
		var vehicles []*models.Vehicle
		err = db.WithContext(c.Request.Context()).
			Where("citizen_id = ?", citizen.ID).
			Order("created_at DESC").
			Find(&vehicles).Error
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, vehicles)
	}
}

func createVehicleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var input models.NewVehicle
		if !bindJSON(c, &input) {
			return
		}
		vehicle, err := models.CreateVehicle(c.Request.Context(), scope.OwnerID(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, vehicle)
	}
}

func updateVehicleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewVehicle
		if !bindJSON(c, &input) {
			return
		}
		vehicle, err := models.UpdateVehicle(c.Request.Context(), scope.OwnerID(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, vehicle)
	}
}

func deleteVehicleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := models.DeleteVehicle(c.Request.Context(), scope.OwnerID(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// vehicleDetailHandler returns the vehicle with each kind's current document
// (maximum expiry) for the profile screen.
func vehicleDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		owned, err := models.VehicleOwnedByTeam(c.Request.Context(), scope.OwnerID(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !owned {
			c.JSON(http.StatusNotFound, gin.H{"message": "record not found"})
			return
		}

		db := config.GetDB()
		var vehicle models.Vehicle
		if err := db.WithContext(c.Request.Context()).First(&vehicle, id).Error; err != nil {
			respondError(c, err)
			return
		}

		current := make(map[string]*models.CurrentDocument)
		for _, kind := range models.AllDocumentKinds() {
			docs, err := models.LatestDocuments(db.WithContext(c.Request.Context()), kind, []int{id})
			if err != nil {
				respondError(c, err)
				return
			}
			if doc, ok := docs[id]; ok {
				d := doc
				current[string(kind.Kind)] = &d
			} else {
				current[string(kind.Kind)] = nil
			}
		}

		c.JSON(http.StatusOK, gin.H{"vehicle": vehicle, "current_documents": current})
	}
}
