package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Citizen rows are always owned by a boss id: staff-created citizens are
// attributed to the staff member's boss.
type Citizen struct {
	ID           int        `gorm:"primary_key" json:"id"`
	UserId       int        `gorm:"index;not null" json:"user_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	MobileNumber string     `gorm:"size:15;not null;index:idx_citizen_owner_mobile,unique,composite:user_id" json:"mobile_number"`
	Email        string     `gorm:"size:255" json:"email"`
	BirthDate    *time.Time `gorm:"type:date" json:"birth_date"`
	RelationType string     `gorm:"size:50" json:"relation_type"`
	RelationName string     `gorm:"size:255" json:"relation_name"`
	Address      string     `gorm:"type:text" json:"address"`
	State        string     `gorm:"size:100" json:"state"`
	CityDistrict string     `gorm:"size:100" json:"city_district"`
	Vehicles     []*Vehicle `gorm:"constraint:OnDelete:CASCADE" json:"vehicles,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCitizen struct {
	Name         string `json:"name" binding:"required,max=255"`
	MobileNumber string `json:"mobile_number" binding:"required,max=15"`
	Email        string `json:"email" binding:"omitempty,email"`
	BirthDate    string `json:"birth_date"`
	RelationType string `json:"relation_type"`
	RelationName string `json:"relation_name"`
	Address      string `json:"address"`
	State        string `json:"state"`
	CityDistrict string `json:"city_district"`
}

// CitizenListRow carries the vehicle count the list view shows.
type CitizenListRow struct {
	Citizen
	VehiclesCount int `json:"vehicles_count"`
}

func parseBirthDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

func ListCitizens(ctx context.Context, ownerId int) ([]*CitizenListRow, error) {
	db := config.GetDB()
	var rows []*CitizenListRow
	err := db.WithContext(ctx).Model(&Citizen{}).
		Select("citizens.*, (SELECT COUNT(*) FROM vehicles WHERE vehicles.citizen_id = citizens.id) AS vehicles_count").
		Where("citizens.user_id = ?", ownerId).
		Order("citizens.created_at DESC").
		Find(&rows).Error
	return rows, err
}

func CreateCitizen(ctx context.Context, ownerId int, input *NewCitizen) (*Citizen, error) {
	db := config.GetDB()

	if err := utils.ValidatePhoneNumber(input.MobileNumber, utils.CountryCode); err != nil {
		return nil, errors.New("mobile number is not valid")
	}
	if err := utils.ValidateUnique[Citizen](ctx, ownerId, "mobile_number", input.MobileNumber, 0); err != nil {
		return nil, err
	}

	citizen := Citizen{
		UserId:       ownerId,
		Name:         utils.UpperTrim(input.Name),
		MobileNumber: input.MobileNumber,
		Email:        input.Email,
		BirthDate:    parseBirthDate(input.BirthDate),
		RelationType: input.RelationType,
		RelationName: input.RelationName,
		Address:      input.Address,
		State:        input.State,
		CityDistrict: input.CityDistrict,
	}
	if err := db.WithContext(ctx).Create(&citizen).Error; err != nil {
		return nil, err
	}
	return &citizen, nil
}

// GetCitizenById scopes the lookup by owner so out-of-team ids read as missing.
func GetCitizenById(ctx context.Context, ownerId int, id int) (*Citizen, error) {
	db := config.GetDB()
	var citizen Citizen
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerId).
		First(&citizen).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &citizen, nil
}

func UpdateCitizen(ctx context.Context, ownerId int, id int, input *NewCitizen) (*Citizen, error) {
	db := config.GetDB()

	citizen, err := GetCitizenById(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidatePhoneNumber(input.MobileNumber, utils.CountryCode); err != nil {
		return nil, errors.New("mobile number is not valid")
	}
	if err := utils.ValidateUnique[Citizen](ctx, ownerId, "mobile_number", input.MobileNumber, id); err != nil {
		return nil, err
	}

	citizen.Name = utils.UpperTrim(input.Name)
	citizen.MobileNumber = input.MobileNumber
	citizen.Email = input.Email
	citizen.BirthDate = parseBirthDate(input.BirthDate)
	citizen.RelationType = input.RelationType
	citizen.RelationName = input.RelationName
	citizen.Address = input.Address
	citizen.State = input.State
	citizen.CityDistrict = input.CityDistrict

	if err := db.WithContext(ctx).Save(citizen).Error; err != nil {
		return nil, err
	}
	return citizen, nil
}

// DeleteCitizen removes the citizen and cascades to vehicles and their documents.
func DeleteCitizen(ctx context.Context, ownerId int, id int) error {
	db := config.GetDB()

	citizen, err := GetCitizenById(ctx, ownerId, id)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Select(clause.Associations).Delete(citizen).Error
}

// FindOrCreateCitizenByMobile backs quick entry and bulk import:
// the (owner, mobile) pair is the duplicate key.
func FindOrCreateCitizenByMobile(tx *gorm.DB, ownerId int, mobile string, name string) (*Citizen, error) {
	var citizen Citizen
	err := tx.Where("user_id = ? AND mobile_number = ?", ownerId, mobile).First(&citizen).Error
	if err == nil {
		return &citizen, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	citizen = Citizen{
		UserId:       ownerId,
		Name:         utils.UpperTrim(name),
		MobileNumber: mobile,
	}
	if err := tx.Create(&citizen).Error; err != nil {
		return nil, err
	}
	return &citizen, nil
}

func CountCitizens(ctx context.Context, ownerId int) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Citizen{}).Where("user_id = ?", ownerId).Count(&count).Error
	return count, err
}

// SearchCitizens serves global search (name or mobile, limited).
func SearchCitizens(ctx context.Context, ownerId int, query string) ([]*Citizen, error) {
	db := config.GetDB()
	var citizens []*Citizen
	like := "%" + query + "%"
	err := db.WithContext(ctx).
		Where("user_id = ?", ownerId).
		Where("name LIKE ? OR mobile_number LIKE ?", like, like).
		Limit(config.SearchLimit).
		Find(&citizens).Error
	return citizens, err
}
