package main

import (
	"net/http"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"bitbucket.org/princerto/rto_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// The seven document kinds share one handler core; each kind contributes a
// request struct and a mapping onto its record.

func checkVehicleOwnership(c *gin.Context, scope models.Scope, vehicleId int) bool {
	owned, err := models.VehicleOwnedByTeam(c.Request.Context(), scope.OwnerID(), vehicleId)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !owned {
		c.JSON(http.StatusForbidden, gin.H{"message": "permission denied"})
		return false
	}
	return true
}

func parseDateField(c *gin.Context, raw string, field string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": field + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func optionalDateField(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

func listDocsHandler[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		vehicleId, ok := idParam(c)
		if !ok {
			return
		}
		if !checkVehicleOwnership(c, scope, vehicleId) {
			return
		}
		docs, err := models.ListDocuments[T](c.Request.Context(), vehicleId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

func createDocHandler[T any](decode func(c *gin.Context) (*T, int, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		doc, vehicleId, ok := decode(c)
		if !ok {
			return
		}
		if !checkVehicleOwnership(c, scope, vehicleId) {
			return
		}
		if err := models.CreateDocument(c.Request.Context(), doc); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

func updateDocHandler[T any](vehicleIdOf func(*T) int, apply func(c *gin.Context, doc *T) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		doc, err := models.GetDocumentById[T](c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !checkVehicleOwnership(c, scope, vehicleIdOf(doc)) {
			return
		}
		if !apply(c, doc) {
			return
		}
		if err := models.SaveDocument(c.Request.Context(), doc); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

func deleteDocHandler[T any](vehicleIdOf func(*T) int) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		doc, err := models.GetDocumentById[T](c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !checkVehicleOwnership(c, scope, vehicleIdOf(doc)) {
			return
		}
		if err := models.DeleteDocument[T](c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

// --- per-kind request shapes ---

type taxRequest struct {
	VehicleId    int             `json:"vehicle_id"`
	UptoDate     string          `json:"upto_date" binding:"required"`
	FromDate     string          `json:"from_date"`
	TaxMode      string          `json:"tax_mode"`
	Type         string          `json:"type"`
	GovtFee      decimal.Decimal `json:"govt_fee"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
	BillAmount   decimal.Decimal `json:"bill_amount"`
}

func (r taxRequest) apply(c *gin.Context, doc *models.Tax) bool {
	upto, ok := parseDateField(c, r.UptoDate, "upto_date")
	if !ok {
		return false
	}
	doc.UptoDate = upto
	doc.FromDate = optionalDateField(r.FromDate)
	doc.TaxMode = r.TaxMode
	doc.Type = r.Type
	doc.GovtFee = r.GovtFee
	doc.ActualAmount = r.ActualAmount
	doc.BillAmount = r.BillAmount
	return true
}

type insuranceRequest struct {
	VehicleId    int             `json:"vehicle_id"`
	EndDate      string          `json:"end_date" binding:"required"`
	StartDate    string          `json:"start_date"`
	Company      string          `json:"company"`
	Type         string          `json:"type"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
	BillAmount   decimal.Decimal `json:"bill_amount"`
}

func (r insuranceRequest) apply(c *gin.Context, doc *models.Insurance) bool {
	end, ok := parseDateField(c, r.EndDate, "end_date")
	if !ok {
		return false
	}
	doc.EndDate = end
	doc.StartDate = optionalDateField(r.StartDate)
	doc.Company = r.Company
	doc.Type = r.Type
	doc.ActualAmount = r.ActualAmount
	doc.BillAmount = r.BillAmount
	return true
}

// validityRequest covers the five kinds that share the valid_from/valid_until
// window plus one or two detail fields.
type validityRequest struct {
	VehicleId    int             `json:"vehicle_id"`
	ValidUntil   string          `json:"valid_until" binding:"required"`
	ValidFrom    string          `json:"valid_from"`
	FitnessNo    string          `json:"fitness_no"`
	PermitNumber string          `json:"permit_number"`
	PermitType   string          `json:"permit_type"`
	PuccNumber   string          `json:"pucc_number"`
	VendorName   string          `json:"vendor_name"`
	GovernorNo   string          `json:"governor_number"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
	BillAmount   decimal.Decimal `json:"bill_amount"`
}

func (r validityRequest) window(c *gin.Context) (time.Time, *time.Time, bool) {
	until, ok := parseDateField(c, r.ValidUntil, "valid_until")
	if !ok {
		return time.Time{}, nil, false
	}
	return until, optionalDateField(r.ValidFrom), true
}

func bindDocRequest[R any](c *gin.Context) (R, bool) {
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		var zero R
		return zero, false
	}
	return req, true
}

// registerDocumentRoutes wires list/create/update/delete for each kind.
func registerDocumentRoutes(r *gin.RouterGroup) {
	taxVehicle := func(d *models.Tax) int { return d.VehicleId }
	r.GET("/vehicles/:id/taxes", listDocsHandler[models.Tax]())
	r.POST("/taxes", createDocHandler(func(c *gin.Context) (*models.Tax, int, bool) {
		req, ok := bindDocRequest[taxRequest](c)
		if !ok {
			return nil, 0, false
		}
		doc := &models.Tax{VehicleId: req.VehicleId}
		return doc, req.VehicleId, req.apply(c, doc)
	}))
	r.PUT("/taxes/:id", updateDocHandler(taxVehicle, func(c *gin.Context, doc *models.Tax) bool {
		req, ok := bindDocRequest[taxRequest](c)
		return ok && req.apply(c, doc)
	}))
	r.DELETE("/taxes/:id", deleteDocHandler(taxVehicle))

	insVehicle := func(d *models.Insurance) int { return d.VehicleId }
	r.GET("/vehicles/:id/insurances", listDocsHandler[models.Insurance]())
	r.POST("/insurances", createDocHandler(func(c *gin.Context) (*models.Insurance, int, bool) {
		req, ok := bindDocRequest[insuranceRequest](c)
		if !ok {
			return nil, 0, false
		}
		doc := &models.Insurance{VehicleId: req.VehicleId}
		return doc, req.VehicleId, req.apply(c, doc)
	}))
	r.PUT("/insurances/:id", updateDocHandler(insVehicle, func(c *gin.Context, doc *models.Insurance) bool {
		req, ok := bindDocRequest[insuranceRequest](c)
		return ok && req.apply(c, doc)
	}))
	r.DELETE("/insurances/:id", deleteDocHandler(insVehicle))

	fitVehicle := func(d *models.Fitness) int { return d.VehicleId }
	r.GET("/vehicles/:id/fitnesses", listDocsHandler[models.Fitness]())
	r.POST("/fitnesses", createDocHandler(func(c *gin.Context) (*models.Fitness, int, bool) {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return nil, 0, false
		}
		until, from, ok := req.window(c)
		if !ok {
			return nil, 0, false
		}
		return &models.Fitness{VehicleId: req.VehicleId, ValidUntil: until, ValidFrom: from,
			FitnessNo: req.FitnessNo, ActualAmount: req.ActualAmount, BillAmount: req.BillAmount}, req.VehicleId, true
	}))
	r.PUT("/fitnesses/:id", updateDocHandler(fitVehicle, func(c *gin.Context, doc *models.Fitness) bool {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return false
		}
		until, from, ok := req.window(c)
		if !ok {
			return false
		}
		doc.ValidUntil, doc.ValidFrom = until, from
		doc.FitnessNo = req.FitnessNo
		doc.ActualAmount, doc.BillAmount = req.ActualAmount, req.BillAmount
		return true
	}))
	r.DELETE("/fitnesses/:id", deleteDocHandler(fitVehicle))

	permitVehicle := func(d *models.Permit) int { return d.VehicleId }
	r.GET("/vehicles/:id/permits", listDocsHandler[models.Permit]())
	r.POST("/permits", createDocHandler(func(c *gin.Context) (*models.Permit, int, bool) {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return nil, 0, false
		}
		until, from, ok := req.window(c)
		if !ok {
			return nil, 0, false
		}
		return &models.Permit{VehicleId: req.VehicleId, ValidUntil: until, ValidFrom: from,
			PermitNumber: req.PermitNumber, PermitType: req.PermitType,
			ActualAmount: req.ActualAmount, BillAmount: req.BillAmount}, req.VehicleId, true
	}))
	r.PUT("/permits/:id", updateDocHandler(permitVehicle, func(c *gin.Context, doc *models.Permit) bool {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return false
		}
		until, from, ok := req.window(c)
		if !ok {
			return false
		}
		doc.ValidUntil, doc.ValidFrom = until, from
		doc.PermitNumber, doc.PermitType = req.PermitNumber, req.PermitType
		doc.ActualAmount, doc.BillAmount = req.ActualAmount, req.BillAmount
		return true
	}))
	r.DELETE("/permits/:id", deleteDocHandler(permitVehicle))

	puccVehicle := func(d *models.Pucc) int { return d.VehicleId }
	r.GET("/vehicles/:id/puccs", listDocsHandler[models.Pucc]())
	r.POST("/puccs", createDocHandler(func(c *gin.Context) (*models.Pucc, int, bool) {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return nil, 0, false
		}
		until, from, ok := req.window(c)
		if !ok {
			return nil, 0, false
		}
		return &models.Pucc{VehicleId: req.VehicleId, ValidUntil: until, ValidFrom: from,
			PuccNumber: req.PuccNumber, ActualAmount: req.ActualAmount, BillAmount: req.BillAmount}, req.VehicleId, true
	}))
	r.PUT("/puccs/:id", updateDocHandler(puccVehicle, func(c *gin.Context, doc *models.Pucc) bool {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return false
		}
		until, from, ok := req.window(c)
		if !ok {
			return false
		}
		doc.ValidUntil, doc.ValidFrom = until, from
		doc.PuccNumber = req.PuccNumber
		doc.ActualAmount, doc.BillAmount = req.ActualAmount, req.BillAmount
		return true
	}))
	r.DELETE("/puccs/:id", deleteDocHandler(puccVehicle))

	vltdVehicle := func(d *models.Vltd) int { return d.VehicleId }
	r.GET("/vehicles/:id/vltds", listDocsHandler[models.Vltd]())
	r.POST("/vltds", createDocHandler(func(c *gin.Context) (*models.Vltd, int, bool) {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return nil, 0, false
		}
		until, from, ok := req.window(c)
		if !ok {
			return nil, 0, false
		}
		return &models.Vltd{VehicleId: req.VehicleId, ValidUntil: until, ValidFrom: from,
			VendorName: req.VendorName, ActualAmount: req.ActualAmount, BillAmount: req.BillAmount}, req.VehicleId, true
	}))
	r.PUT("/vltds/:id", updateDocHandler(vltdVehicle, func(c *gin.Context, doc *models.Vltd) bool {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return false
		}
		until, from, ok := req.window(c)
		if !ok {
			return false
		}
		doc.ValidUntil, doc.ValidFrom = until, from
		doc.VendorName = req.VendorName
		doc.ActualAmount, doc.BillAmount = req.ActualAmount, req.BillAmount
		return true
	}))
	r.DELETE("/vltds/:id", deleteDocHandler(vltdVehicle))

	sgVehicle := func(d *models.SpeedGovernor) int { return d.VehicleId }
	r.GET("/vehicles/:id/speed-governors", listDocsHandler[models.SpeedGovernor]())
	r.POST("/speed-governors", createDocHandler(func(c *gin.Context) (*models.SpeedGovernor, int, bool) {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return nil, 0, false
		}
		until, from, ok := req.window(c)
		if !ok {
			return nil, 0, false
		}
		return &models.SpeedGovernor{VehicleId: req.VehicleId, ValidUntil: until, ValidFrom: from,
			GovernorNumber: req.GovernorNo, ActualAmount: req.ActualAmount, BillAmount: req.BillAmount}, req.VehicleId, true
	}))
	r.PUT("/speed-governors/:id", updateDocHandler(sgVehicle, func(c *gin.Context, doc *models.SpeedGovernor) bool {
		req, ok := bindDocRequest[validityRequest](c)
		if !ok {
			return false
		}
		until, from, ok := req.window(c)
		if !ok {
			return false
		}
		doc.ValidUntil, doc.ValidFrom = until, from
		doc.GovernorNumber = req.GovernorNo
		doc.ActualAmount, doc.BillAmount = req.ActualAmount, req.BillAmount
		return true
	}))
	r.DELETE("/speed-governors/:id", deleteDocHandler(sgVehicle))
}

// --- expiry report + manual reminder ---

func expiryReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		filter := models.ExpiryReportFilter{
			OwnerName:  c.Query("owner_name"),
			VehicleNo:  c.Query("vehicle_no"),
			DocType:    c.Query("doc_type"),
			ExpiryFrom: queryDate(c, "from_date"),
			ExpiryUpto: queryDate(c, "to_date"),
		}
		if citizenId := queryInt(c, "citizen_id"); citizenId != nil {
			filter.CitizenId = *citizenId
		}
		rows, err := models.ExpiryReport(c.Request.Context(), scope.OwnerID(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

type sendReminderRequest struct {
	CitizenId      int    `json:"citizen_id" binding:"required"`
	MobileNumber   string `json:"mobile_number" binding:"required"`
	RegistrationNo string `json:"registration_no" binding:"required"`
	DocType        string `json:"doc_type" binding:"required"`
	ExpiryDate     string `json:"expiry_date" binding:"required"`
}

func sendReminderHandler() gin.HandlerFunc {
	sender := utils.NewWhatsAppSender()
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		var req sendReminderRequest
		if !bindJSON(c, &req) {
			return
		}
		expiry, ok := parseDateField(c, req.ExpiryDate, "expiry_date")
		if !ok {
			return
		}

		boss, err := models.GetUserById(c.Request.Context(), scope.OwnerID())
		if err != nil {
			respondError(c, err)
			return
		}
		row := &models.ExpiringDocument{
			CitizenId:      req.CitizenId,
			MobileNumber:   req.MobileNumber,
			RegistrationNo: req.RegistrationNo,
			DocType:        req.DocType,
			ExpiryDate:     expiry,
		}
		err = workflow.SendExpiryReminder(c.Request.Context(), sender, boss, row, req.DocType)
		if err != nil {
			logger := config.GetLogger()
			config.LogError(logger, "documentHandlers.go", "sendReminderHandler", "manual reminder",
				map[string]interface{}{"citizen_id": req.CitizenId}, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "reminder sent"})
	}
}
