package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportTypes lists the accepted values of the type field on upload.
var ImportTypes = []string{
	"citizens", "vehicles",
	"tax", "insurance", "fitness", "permit", "pucc", "vltd", "speed_gov",
	"cash_flow", "work_book", "licenses",
}

func validImportType(importType string) bool {
	for _, t := range ImportTypes {
		if t == importType {
			return true
		}
	}
	return false
}

// ReadSheetRows opens an xlsx stream and returns the first sheet's rows with
// the header row dropped.
func ReadSheetRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportRows loads a parsed sheet into the tenant's tables. All rows run in
// one transaction; any hard error rolls the whole file back. Rows that
// reference unknown citizens or vehicles are counted as skipped, not errors.
func ImportRows(ctx context.Context, logger *logrus.Logger, ownerId int, userId int, importType string, rows [][]string) (ImportResult, error) {
	result := ImportResult{}
	if !validImportType(importType) {
		return result, fmt.Errorf("unknown import type %q", importType)
	}
	if len(rows) == 0 {
		return result, errors.New("file is empty")
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if cell(row, 0) == "" {
				continue
			}

			var err error
			switch importType {
			case "citizens":
				err = importCitizen(tx, ownerId, row)
			case "vehicles":
				err = importVehicle(tx, ownerId, row, &result)
			case "tax", "insurance", "fitness", "permit", "pucc", "vltd", "speed_gov":
				err = importDocument(tx, ownerId, importType, row, &result)
			case "cash_flow":
				err = importLedgerEntry(tx, ownerId, userId, row)
			case "work_book":
				err = importWorkJob(tx, ownerId, userId, row)
			case "licenses":
				err = importLicense(tx, userId, row)
			}
			if err != nil {
				return err
			}
			if importType != "vehicles" && !isDocumentType(importType) {
				result.Imported++
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, "workflow", "ImportRows", "bulk import",
			map[string]interface{}{"type": importType, "rows": len(rows)}, err)
		return ImportResult{}, err
	}

	logger.WithFields(logrus.Fields{
		"type":     importType,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}).Info("bulk import finished")
	return result, nil
}

func isDocumentType(importType string) bool {
	switch importType {
	case "tax", "insurance", "fitness", "permit", "pucc", "vltd", "speed_gov":
		return true
	}
	return false
}

// 0: Name, 1: Mobile, 2: Email, 3: DOB, 4: Rel Type, 5: Rel Name,
// 6: Address, 7: State, 8: City
func importCitizen(tx *gorm.DB, ownerId int, row []string) error {
	mobile := utils.UpperTrim(cell(row, 1))
	birthDate := utils.ParseSheetDate(cell(row, 3), utils.DateOnly(time.Now()))

	var citizen models.Citizen
	err := tx.Where("user_id = ? AND mobile_number = ?", ownerId, mobile).First(&citizen).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	citizen.UserId = ownerId
	citizen.MobileNumber = mobile
	citizen.Name = utils.UpperTrim(cell(row, 0))
	citizen.Email = cell(row, 2)
	citizen.BirthDate = &birthDate
	citizen.RelationType = cell(row, 4)
	citizen.RelationName = cell(row, 5)
	citizen.Address = cell(row, 6)
	citizen.State = cell(row, 7)
	citizen.CityDistrict = cell(row, 8)
	return tx.Save(&citizen).Error
}

// 0: Owner Mobile, 1: Reg No, 2: Type, 3: Make/Model, 4: Chassis, 5: Engine
func importVehicle(tx *gorm.DB, ownerId int, row []string, result *ImportResult) error {
	var citizen models.Citizen
	err := tx.Where("user_id = ? AND mobile_number = ?", ownerId, utils.UpperTrim(cell(row, 0))).
		First(&citizen).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Skipped++
			return nil
		}
		return err
	}

	regNo := utils.NormalizeRegistrationNo(cell(row, 1))
	var vehicle models.Vehicle
	err = tx.Where("registration_no = ?", regNo).First(&vehicle).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	vehicle.RegistrationNo = regNo
	vehicle.CitizenId = citizen.ID
	vehicle.Type = cell(row, 2)
	vehicle.MakeModel = cell(row, 3)
	vehicle.ChassisNo = cell(row, 4)
	vehicle.EngineNo = cell(row, 5)
	if err := tx.Save(&vehicle).Error; err != nil {
		return err
	}
	result.Imported++
	return nil
}

// 0: Reg No, 1: Valid Upto, 2: From, 3: Actual, 4: Bill, 5: Detail1, 6: Detail2
func importDocument(tx *gorm.DB, ownerId int, importType string, row []string, result *ImportResult) error {
	var vehicle models.Vehicle
	err := tx.Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("vehicles.registration_no = ? AND citizens.user_id = ?",
			utils.NormalizeRegistrationNo(cell(row, 0)), ownerId).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Skipped++
			return nil
		}
		return err
	}

	expiryRaw := cell(row, 1)
	if expiryRaw == "" {
		result.Skipped++
		return nil
	}
	expiry := utils.ParseSheetDate(expiryRaw, utils.DateOnly(time.Now()))
	from := utils.ParseSheetDate(cell(row, 2), utils.DateOnly(time.Now()))
	actual := utils.CleanAmount(cell(row, 3))
	bill := utils.CleanAmount(cell(row, 4))
	d1 := cell(row, 5)
	d2 := cell(row, 6)

	switch importType {
	case "tax":
		err = tx.Create(&models.Tax{VehicleId: vehicle.ID, UptoDate: expiry, FromDate: &from,
			GovtFee: actual, ActualAmount: actual, BillAmount: bill, TaxMode: d1, Type: d2}).Error
	case "insurance":
		err = tx.Create(&models.Insurance{VehicleId: vehicle.ID, EndDate: expiry, StartDate: &from,
			ActualAmount: actual, BillAmount: bill, Company: d1, Type: d2}).Error
	case "fitness":
		err = tx.Create(&models.Fitness{VehicleId: vehicle.ID, ValidUntil: expiry, ValidFrom: &from,
			ActualAmount: actual, BillAmount: bill, FitnessNo: d1}).Error
	case "permit":
		err = tx.Create(&models.Permit{VehicleId: vehicle.ID, ValidUntil: expiry, ValidFrom: &from,
			ActualAmount: actual, BillAmount: bill, PermitNumber: d1, PermitType: d2}).Error
	case "pucc":
		err = tx.Create(&models.Pucc{VehicleId: vehicle.ID, ValidUntil: expiry, ValidFrom: &from,
			ActualAmount: actual, BillAmount: bill, PuccNumber: d1}).Error
	case "vltd":
		err = tx.Create(&models.Vltd{VehicleId: vehicle.ID, ValidUntil: expiry, ValidFrom: &from,
			ActualAmount: actual, BillAmount: bill, VendorName: d1}).Error
	case "speed_gov":
		err = tx.Create(&models.SpeedGovernor{VehicleId: vehicle.ID, ValidUntil: expiry, ValidFrom: &from,
			ActualAmount: actual, BillAmount: bill, GovernorNumber: d1}).Error
	}
	if err != nil {
		return err
	}
	result.Imported++
	return nil
}

// 0: Date, 1: Time, 2: Account Name, 3: Type, 4: Amount, 5: Desc, 6: Mobile
func importLedgerEntry(tx *gorm.DB, ownerId int, userId int, row []string) error {
	entryDate := utils.ParseSheetDate(cell(row, 0), utils.DateOnly(time.Now())).
		Add(utils.ParseSheetTime(cell(row, 1)))

	accountId, err := models.FindOrCreateLedgerAccountByName(tx, ownerId, cell(row, 2))
	if err != nil {
		return err
	}

	txnType := models.TxnTypeOut
	if utils.UpperTrim(cell(row, 3)) == "IN" {
		txnType = models.TxnTypeIn
	}

	entry := models.LedgerEntry{
		UserId:          userId,
		LedgerAccountId: accountId,
		TxnType:         txnType,
		Amount:          utils.CleanAmount(cell(row, 4)),
		EntryDate:       entryDate,
		Description:     utils.UpperTrim(cell(row, 5)),
	}
	return tx.Create(&entry).Error
}

// 0: Date, 1: Time, 2: Client, 3: Mobile, 4: Vehicle, 5: Work, 6: Bill, 7: Paid
func importWorkJob(tx *gorm.DB, ownerId int, userId int, row []string) error {
	jobDate := utils.ParseSheetDate(cell(row, 0), utils.DateOnly(time.Now())).
		Add(utils.ParseSheetTime(cell(row, 1)))

	client, err := models.FindOrCreateClientByName(tx, ownerId, cell(row, 2))
	if err != nil {
		return err
	}
	if client.MobileNumber == "" && cell(row, 3) != "" {
		client.MobileNumber = cell(row, 3)
		if err := tx.Save(client).Error; err != nil {
			return err
		}
	}

	vehicleNo := utils.UpperTrim(cell(row, 4))
	if vehicleNo == "" {
		vehicleNo = "-"
	}
	job := models.WorkJob{
		UserId:      userId,
		ClientId:    client.ID,
		JobDate:     jobDate,
		VehicleNo:   vehicleNo,
		Description: utils.UpperTrim(cell(row, 5)),
		BillAmount:  utils.CleanAmount(cell(row, 6)),
		PaidAmount:  utils.CleanAmount(cell(row, 7)),
	}
	return tx.Create(&job).Error
}

// 0: Name, 1: Mobile, 2: DOB, 3: App No, 4: LL No, 5: LL Status, 6: DL No, 7: DL Status
func importLicense(tx *gorm.DB, userId int, row []string) error {
	llStatus := cell(row, 5)
	if llStatus == "" {
		llStatus = "Form Complete"
	}
	license := models.License{
		UserId:        userId,
		ApplicantName: utils.UpperTrim(cell(row, 0)),
		MobileNumber:  cell(row, 1),
		Dob:           utils.ParseSheetDate(cell(row, 2), utils.DateOnly(time.Now())),
		ApplicationNo: cell(row, 3),
		LlNumber:      utils.UpperTrim(cell(row, 4)),
		LlStatus:      llStatus,
		DlNumber:      utils.UpperTrim(cell(row, 6)),
		DlStatus:      cell(row, 7),
		LlBillAmount:  decimal.Zero,
		LlPaidAmount:  decimal.Zero,
		DlBillAmount:  decimal.Zero,
		DlPaidAmount:  decimal.Zero,
	}
	return tx.Create(&license).Error
}
