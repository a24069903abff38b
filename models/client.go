package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
	"gorm.io/gorm"
)

// Client is a work-book counterparty. Rows are owned by the boss even when a
// staff member creates them.
type Client struct {
	ID           int       `gorm:"primary_key" json:"id"`
	UserId       int       `gorm:"index;not null" json:"user_id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	MobileNumber string    `gorm:"size:20" json:"mobile_number"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewClient struct {
	Name         string `json:"name" binding:"required"`
	MobileNumber string `json:"mobile_number"`
}

func ListClients(ctx context.Context, ownerId int) ([]*Client, error) {
	db := config.GetDB()
	var clients []*Client
	err := db.WithContext(ctx).
		Where("user_id = ?", ownerId).
		Order("name ASC").
		Find(&clients).Error
	return clients, err
}

func GetClientById(ctx context.Context, ownerId int, id int) (*Client, error) {
	db := config.GetDB()
	var client Client
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerId, id).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &client, nil
}

func CreateClient(ctx context.Context, ownerId int, input NewClient) (*Client, error) {
	db := config.GetDB()
	client := Client{
		UserId:       ownerId,
		Name:         utils.UpperTrim(input.Name),
		MobileNumber: input.MobileNumber,
	}
	if err := db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func UpdateClient(ctx context.Context, ownerId int, id int, input NewClient) (*Client, error) {
	client, err := GetClientById(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	client.Name = utils.UpperTrim(input.Name)
	client.MobileNumber = input.MobileNumber
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func DeleteClient(ctx context.Context, ownerId int, id int) error {
	client, err := GetClientById(ctx, ownerId, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", client.ID).Delete(&WorkJob{}).Error; err != nil {
			return err
		}
		return tx.Delete(client).Error
	})
}

// FindOrCreateClientByName is the bulk-import hook.
func FindOrCreateClientByName(tx *gorm.DB, ownerId int, name string) (*Client, error) {
	name = utils.UpperTrim(name)
	if name == "" {
		return nil, errors.New("client name is required")
	}
	var client Client
	err := tx.Where("user_id = ? AND name = ?", ownerId, name).First(&client).Error
	if err == nil {
		return &client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	client = Client{UserId: ownerId, Name: name}
	if err := tx.Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}
