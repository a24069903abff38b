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

type Vehicle struct {
	ID             int       `gorm:"primary_key" json:"id"`
	CitizenId      int       `gorm:"index;not null" json:"citizen_id"`
	RegistrationNo string    `gorm:"size:20;uniqueIndex;not null" json:"registration_no"`
	Type           string    `gorm:"size:50" json:"type"`
	MakeModel      string    `gorm:"size:100" json:"make_model"`
	ChassisNo      string    `gorm:"size:50" json:"chassis_no"`
	EngineNo       string    `gorm:"size:50" json:"engine_no"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Taxes          []*Tax           `gorm:"constraint:OnDelete:CASCADE" json:"taxes,omitempty"`
	Insurances     []*Insurance     `gorm:"constraint:OnDelete:CASCADE" json:"insurances,omitempty"`
	Fitnesses      []*Fitness       `gorm:"constraint:OnDelete:CASCADE" json:"fitnesses,omitempty"`
	Permits        []*Permit        `gorm:"constraint:OnDelete:CASCADE" json:"permits,omitempty"`
	Puccs          []*Pucc          `gorm:"constraint:OnDelete:CASCADE" json:"puccs,omitempty"`
	Vltds          []*Vltd          `gorm:"constraint:OnDelete:CASCADE" json:"vltds,omitempty"`
	SpeedGovernors []*SpeedGovernor `gorm:"constraint:OnDelete:CASCADE" json:"speed_governors,omitempty"`
}

type NewVehicle struct {
	CitizenId      int    `json:"citizen_id" binding:"required"`
	RegistrationNo string `json:"registration_no" binding:"required,max=20"`
	Type           string `json:"type"`
	MakeModel      string `json:"make_model"`
	ChassisNo      string `json:"chassis_no"`
	EngineNo       string `json:"engine_no"`
}

// vehicleInTeam resolves a vehicle through its citizen's owner; out-of-team
// ids look like missing rows.
func vehicleInTeam(ctx context.Context, ownerId int, id int) (*Vehicle, error) {
	db := config.GetDB()
	var vehicle Vehicle
	err := db.WithContext(ctx).
		Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("vehicles.id = ? AND citizens.user_id = ?", id, ownerId).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// VehicleOwnedByTeam is the ownership gate used by every document write.
func VehicleOwnedByTeam(ctx context.Context, ownerId int, vehicleId int) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Vehicle{}).
		Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("vehicles.id = ? AND citizens.user_id = ?", vehicleId, ownerId).
		Count(&count).Error
	return count > 0, err
}

func CreateVehicle(ctx context.Context, ownerId int, input *NewVehicle) (*Vehicle, error) {
	db := config.GetDB()

	if err := utils.ValidateOwnedResourceId[Citizen](ctx, ownerId, input.CitizenId); err != nil {
		return nil, err
	}

	regNo := utils.NormalizeRegistrationNo(input.RegistrationNo)
	var count int64
	if err := db.WithContext(ctx).Model(&Vehicle{}).
		Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("vehicles.registration_no = ? AND citizens.user_id = ?", regNo, ownerId).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate registration_no")
	}

	vehicle := Vehicle{
		CitizenId:      input.CitizenId,
		RegistrationNo: regNo,
		Type:           input.Type,
		MakeModel:      utils.UpperTrim(input.MakeModel),
		ChassisNo:      utils.UpperTrim(input.ChassisNo),
		EngineNo:       utils.UpperTrim(input.EngineNo),
	}
	if err := db.WithContext(ctx).Create(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func UpdateVehicle(ctx context.Context, ownerId int, id int, input *NewVehicle) (*Vehicle, error) {
	db := config.GetDB()

	vehicle, err := vehicleInTeam(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	vehicle.RegistrationNo = utils.NormalizeRegistrationNo(input.RegistrationNo)
	vehicle.Type = input.Type
	vehicle.MakeModel = utils.UpperTrim(input.MakeModel)
	vehicle.ChassisNo = utils.UpperTrim(input.ChassisNo)
	vehicle.EngineNo = utils.UpperTrim(input.EngineNo)

	if err := db.WithContext(ctx).Save(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// DeleteVehicle is allowed for staff as well as the boss.
func DeleteVehicle(ctx context.Context, ownerId int, id int) error {
	db := config.GetDB()
	vehicle, err := vehicleInTeam(ctx, ownerId, id)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Select(clause.Associations).Delete(vehicle).Error
}

func CountVehicles(ctx context.Context, ownerId int) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Vehicle{}).
		Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("citizens.user_id = ?", ownerId).
		Count(&count).Error
	return count, err
}

// FindOrReassignVehicle backs quick entry: an existing registration is
// re-linked to the citizen; a fresh one is created with type "N/A".
func FindOrReassignVehicle(tx *gorm.DB, citizenId int, regNo string) (*Vehicle, error) {
	var vehicle Vehicle
	err := tx.Where("registration_no = ?", regNo).First(&vehicle).Error
	if err == nil {
		if vehicle.CitizenId != citizenId {
			vehicle.CitizenId = citizenId
			if err := tx.Save(&vehicle).Error; err != nil {
				return nil, err
			}
		}
		return &vehicle, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	vehicle = Vehicle{CitizenId: citizenId, RegistrationNo: regNo, Type: "N/A"}
	if err := tx.Create(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

type VehicleSearchRow struct {
	Vehicle
	OwnerName string `json:"owner_name"`
	OwnerId   int    `json:"owner_id"`
}

func SearchVehicles(ctx context.Context, ownerId int, query string) ([]*VehicleSearchRow, error) {
	db := config.GetDB()
	var rows []*VehicleSearchRow
	like := "%" + query + "%"
	err := db.WithContext(ctx).Model(&Vehicle{}).
		Select("vehicles.*, citizens.name AS owner_name, citizens.id AS owner_id").
		Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("citizens.user_id = ?", ownerId).
		Where("vehicles.registration_no LIKE ? OR vehicles.chassis_no LIKE ?", like, like).
		Limit(config.SearchLimit).
		Find(&rows).Error
	return rows, err
}
