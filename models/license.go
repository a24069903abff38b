package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// License tracks a driving-licence application through its learner (LL) and
// permanent (DL) stages, with per-stage financials. Owned by the acting user.
type License struct {
	ID            int             `gorm:"primary_key" json:"id"`
	UserId        int             `gorm:"index;not null" json:"user_id"`
	ApplicantName string          `gorm:"size:100;not null" json:"applicant_name"`
	Dob           time.Time       `gorm:"type:date;not null" json:"dob"`
	MobileNumber  string          `gorm:"size:20;not null" json:"mobile_number"`
	ApplicationNo string          `gorm:"size:50" json:"application_no"`
	Address       string          `gorm:"type:text" json:"address"`
	LlNumber      string          `gorm:"size:50" json:"ll_number"`
	Categories    string          `gorm:"size:100" json:"categories"`
	LlValidFrom   *time.Time      `gorm:"type:date" json:"ll_valid_from"`
	LlValidUpto   *time.Time      `gorm:"type:date" json:"ll_valid_upto"`
	LlStatus      string          `gorm:"size:50;default:'Form Complete'" json:"ll_status"`
	LlBillAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"ll_bill_amount"`
	LlPaidAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"ll_paid_amount"`
	DlStatus      string          `gorm:"size:50" json:"dl_status"`
	DlAppNo       string          `gorm:"size:50" json:"dl_app_no"`
	DlBillAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"dl_bill_amount"`
	DlPaidAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"dl_paid_amount"`
	DlNumber      string          `gorm:"size:50" json:"dl_number"`
	DlValidFrom   *time.Time      `gorm:"type:date" json:"dl_valid_from"`
	DlValidUpto   *time.Time      `gorm:"type:date" json:"dl_valid_upto"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLicense struct {
	ApplicantName string   `json:"applicant_name" binding:"required"`
	Dob           string   `json:"dob" binding:"required"`
	MobileNumber  string   `json:"mobile_number" binding:"required"`
	ApplicationNo string   `json:"application_no"`
	Address       string   `json:"address"`
	LlNumber      string   `json:"ll_number"`
	Categories    []string `json:"categories"`
	LlValidFrom   string   `json:"ll_valid_from"`
	LlValidUpto   string   `json:"ll_valid_upto"`
	LlStatus      string   `json:"ll_status"`
	LlBillAmount  string   `json:"ll_bill_amount"`
	LlPaidAmount  string   `json:"ll_paid_amount"`
	DlStatus      string   `json:"dl_status"`
	DlAppNo       string   `json:"dl_app_no"`
	DlBillAmount  string   `json:"dl_bill_amount"`
	DlPaidAmount  string   `json:"dl_paid_amount"`
	DlNumber      string   `json:"dl_number"`
	DlValidFrom   string   `json:"dl_valid_from"`
	DlValidUpto   string   `json:"dl_valid_upto"`
}

func optionalDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &date
}

func (input NewLicense) apply(license *License) error {
	dob, err := time.Parse("2006-01-02", input.Dob)
	if err != nil {
		return errors.New("dob must be YYYY-MM-DD")
	}
	license.ApplicantName = utils.UpperTrim(input.ApplicantName)
	license.Dob = dob
	license.MobileNumber = strings.TrimSpace(input.MobileNumber)
	license.ApplicationNo = strings.TrimSpace(input.ApplicationNo)
	license.Address = strings.TrimSpace(input.Address)
	license.LlNumber = utils.UpperTrim(input.LlNumber)
	license.Categories = strings.Join(input.Categories, ",")
	license.LlValidFrom = optionalDate(input.LlValidFrom)
	license.LlValidUpto = optionalDate(input.LlValidUpto)
	license.LlStatus = input.LlStatus
	if license.LlStatus == "" {
		license.LlStatus = "Form Complete"
	}
	license.LlBillAmount = utils.CleanAmount(input.LlBillAmount)
	license.LlPaidAmount = utils.CleanAmount(input.LlPaidAmount)
	license.DlStatus = input.DlStatus
	license.DlAppNo = strings.TrimSpace(input.DlAppNo)
	license.DlBillAmount = utils.CleanAmount(input.DlBillAmount)
	license.DlPaidAmount = utils.CleanAmount(input.DlPaidAmount)
	license.DlNumber = utils.UpperTrim(input.DlNumber)
	license.DlValidFrom = optionalDate(input.DlValidFrom)
	license.DlValidUpto = optionalDate(input.DlValidUpto)
	return nil
}

type LicenseFilter struct {
	Search   string
	FromDate *time.Time
	ToDate   *time.Time
}

// ListLicenses lists team licences, newest first, with keyword search over
// names, numbers and application ids plus a created-at date filter.
func ListLicenses(ctx context.Context, teamIds []int, filter LicenseFilter) ([]*License, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Where("user_id IN ?", teamIds)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("(applicant_name LIKE ? OR mobile_number LIKE ? OR application_no LIKE ? OR ll_number LIKE ? OR dl_number LIKE ?)",
			like, like, like, like, like)
	}
	if filter.FromDate != nil {
		q = q.Where("created_at >= ?", utils.DateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		q = q.Where("created_at < ?", utils.DateOnly(*filter.ToDate).AddDate(0, 0, 1))
	}
	var licenses []*License
	err := q.Order("created_at DESC").Find(&licenses).Error
	return licenses, err
}

func GetLicenseById(ctx context.Context, teamIds []int, id int) (*License, error) {
	db := config.GetDB()
	var license License
	err := db.WithContext(ctx).
		Where("user_id IN ? AND id = ?", teamIds, id).
		First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &license, nil
}

func CreateLicense(ctx context.Context, userId int, input NewLicense) (*License, error) {
	license := License{UserId: userId}
	if err := input.apply(&license); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&license).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

func UpdateLicense(ctx context.Context, teamIds []int, id int, input NewLicense) (*License, error) {
	license, err := GetLicenseById(ctx, teamIds, id)
	if err != nil {
		return nil, err
	}
	if err := input.apply(license); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(license).Error; err != nil {
		return nil, err
	}
	return license, nil
}

func DeleteLicense(ctx context.Context, teamIds []int, id int) error {
	license, err := GetLicenseById(ctx, teamIds, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(license).Error
}

// SearchLicenses backs the global search box.
func SearchLicenses(ctx context.Context, teamIds []int, keyword string) ([]*License, error) {
	db := config.GetDB()
	like := "%" + keyword + "%"
	var licenses []*License
	err := db.WithContext(ctx).
		Where("user_id IN ?", teamIds).
		Where("(applicant_name LIKE ? OR mobile_number LIKE ? OR ll_number LIKE ? OR dl_number LIKE ?)",
			like, like, like, like).
		Limit(config.SearchLimit).
		Find(&licenses).Error
	return licenses, err
}
