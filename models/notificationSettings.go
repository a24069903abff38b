package models

import (
	"context"
	"errors"

	"bitbucket.org/princerto/rto_backend/config"
	"gorm.io/gorm"
)

// NotificationSettings holds per-boss expiry lead times in days, one row per
// tenant. Vehicles without a row fall back to the defaults below.
type NotificationSettings struct {
	ID            int `gorm:"primary_key" json:"id"`
	UserId        int `gorm:"uniqueIndex;not null" json:"user_id"`
	TaxDays       int `gorm:"default:15" json:"tax_days"`
	InsuranceDays int `gorm:"default:15" json:"insurance_days"`
	FitnessDays   int `gorm:"default:15" json:"fitness_days"`
	PermitDays    int `gorm:"default:15" json:"permit_days"`
	PuccDays      int `gorm:"default:7" json:"pucc_days"`
	VltdDays      int `gorm:"default:15" json:"vltd_days"`
	SpeedGovDays  int `gorm:"default:15" json:"speed_gov_days"`
}

func defaultNotificationSettings(ownerId int) NotificationSettings {
	return NotificationSettings{
		UserId:        ownerId,
		TaxDays:       15,
		InsuranceDays: 15,
		FitnessDays:   15,
		PermitDays:    15,
		PuccDays:      7,
		VltdDays:      15,
		SpeedGovDays:  15,
	}
}

// LeadDays resolves the configured lead time for a document kind.
func (s NotificationSettings) LeadDays(kind DocumentKind) int {
	switch kind {
	case DocumentKindTax:
		return s.TaxDays
	case DocumentKindInsurance:
		return s.InsuranceDays
	case DocumentKindFitness:
		return s.FitnessDays
	case DocumentKindPermit:
		return s.PermitDays
	case DocumentKindPucc:
		return s.PuccDays
	case DocumentKindVltd:
		return s.VltdDays
	case DocumentKindSpeedGov:
		return s.SpeedGovDays
	}
	return 15
}

type NewNotificationSettings struct {
	TaxDays       int `json:"tax_days" binding:"min=0"`
	InsuranceDays int `json:"insurance_days" binding:"min=0"`
	FitnessDays   int `json:"fitness_days" binding:"min=0"`
	PermitDays    int `json:"permit_days" binding:"min=0"`
	PuccDays      int `json:"pucc_days" binding:"min=0"`
	VltdDays      int `json:"vltd_days" binding:"min=0"`
	SpeedGovDays  int `json:"speed_gov_days" binding:"min=0"`
}

// GetNotificationSettings returns the boss's row or the defaults when none
// has been saved yet.
func GetNotificationSettings(ctx context.Context, ownerId int) (NotificationSettings, error) {
	db := config.GetDB()
	var settings NotificationSettings
	err := db.WithContext(ctx).Where("user_id = ?", ownerId).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultNotificationSettings(ownerId), nil
		}
		return NotificationSettings{}, err
	}
	return settings, nil
}

// SaveNotificationSettings updates the boss's row or inserts it.
func SaveNotificationSettings(ctx context.Context, ownerId int, input NewNotificationSettings) (NotificationSettings, error) {
	db := config.GetDB()
	settings := NotificationSettings{
		UserId:        ownerId,
		TaxDays:       input.TaxDays,
		InsuranceDays: input.InsuranceDays,
		FitnessDays:   input.FitnessDays,
		PermitDays:    input.PermitDays,
		PuccDays:      input.PuccDays,
		VltdDays:      input.VltdDays,
		SpeedGovDays:  input.SpeedGovDays,
	}

	var existing NotificationSettings
	err := db.WithContext(ctx).Where("user_id = ?", ownerId).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
				return NotificationSettings{}, err
			}
			return settings, nil
		}
		return NotificationSettings{}, err
	}

	settings.ID = existing.ID
	if err := db.WithContext(ctx).Save(&settings).Error; err != nil {
		return NotificationSettings{}, err
	}
	return settings, nil
}
