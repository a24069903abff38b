package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null;default:'level_0'" json:"role"`
	ParentId     *int      `gorm:"index" json:"parent_id"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	WhatsappKey  string    `gorm:"size:255" json:"whatsapp_key"`
	WhatsappHost string    `gorm:"size:255" json:"whatsapp_host"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OwnerID resolves the owning account for every tenant-scoped write:
// a staff member's boss, or the user itself for bosses.
// Deterministic and side-effect-free; a stale parent_id resolves as-is.
func (u *User) OwnerID() int {
	if u.ParentId != nil {
		return *u.ParentId
	}
	return u.ID
}

// IsBoss gates boss-only actions (deletes, account edits).
func (u *User) IsBoss() bool {
	return u.ParentId == nil
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == UserRoleSuperAdmin
}

// TeamIDs returns the boss id plus all staff ids under that boss.
// Always contains at least the boss.
func TeamIDs(ctx context.Context, u *User) ([]int, error) {
	bossId := u.OwnerID()
	db := config.GetDB()
	var ids []int
	err := db.WithContext(ctx).Model(&User{}).
		Where("id = ? OR parent_id = ?", bossId, bossId).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if !utils.ContainsInt(ids, bossId) {
		ids = append([]int{bossId}, ids...)
	}
	return ids, nil
}

type NewUser struct {
	Name         string   `json:"name" binding:"required,max=255"`
	Email        string   `json:"email" binding:"required,email"`
	Password     string   `json:"password" binding:"required,min=6"`
	Role         UserRole `json:"role" binding:"required,oneof=level_1 level_0"`
	WhatsappKey  string   `json:"whatsapp_key"`
	WhatsappHost string   `json:"whatsapp_host"`
}

type UpdateUser struct {
	Name         string   `json:"name" binding:"required,max=255"`
	Email        string   `json:"email" binding:"required,email"`
	Password     string   `json:"password"`
	Role         UserRole `json:"role" binding:"required,oneof=level_1 level_0"`
	WhatsappKey  string   `json:"whatsapp_key"`
	WhatsappHost string   `json:"whatsapp_host"`
}

type NewStaff struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func GetUserById(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListAgentUsers lists every account except super admins, newest first.
func ListAgentUsers(ctx context.Context) ([]*User, error) {
	db := config.GetDB()
	var users []*User
	err := db.WithContext(ctx).
		Where("role <> ?", UserRoleSuperAdmin).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}

func CreateAgentUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate email")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:         input.Name,
		Email:        input.Email,
		Password:     string(hashed),
		Role:         input.Role,
		IsActive:     utils.NewTrue(),
		WhatsappKey:  input.WhatsappKey,
		WhatsappHost: input.WhatsappHost,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateAgentUser(ctx context.Context, id int, input *UpdateUser) (*User, error) {
	db := config.GetDB()

	user, err := GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).
		Where("email = ? AND NOT id = ?", input.Email, id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate email")
	}

	user.Name = input.Name
	user.Email = input.Email
	user.Role = input.Role
	user.WhatsappKey = input.WhatsappKey
	user.WhatsappHost = input.WhatsappHost
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}

	if err := db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	invalidateUserCache(id)
	return user, nil
}

// ToggleUserStatus flips is_active. Deactivation is a soft flag, not deletion.
func ToggleUserStatus(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	user, err := GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsActive != nil && *user.IsActive {
		user.IsActive = utils.NewFalse()
	} else {
		user.IsActive = utils.NewTrue()
	}
	if err := db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	invalidateUserCache(id)
	return user, nil
}

func DeleteAgentUser(ctx context.Context, id int) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&User{}, id).Error; err != nil {
		return err
	}
	invalidateUserCache(id)
	return nil
}

// ListStaff lists a boss's subordinates.
func ListStaff(ctx context.Context, bossId int) ([]*User, error) {
	db := config.GetDB()
	var users []*User
	err := db.WithContext(ctx).Where("parent_id = ?", bossId).Find(&users).Error
	return users, err
}

func CreateStaff(ctx context.Context, bossId int, input *NewStaff) (*User, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate email")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	staff := User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     UserRoleStaff,
		ParentId: &bossId,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func DeleteStaff(ctx context.Context, bossId int, staffId int) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("id = ? AND parent_id = ?", staffId, bossId).
		Delete(&User{}).Error; err != nil {
		return err
	}
	invalidateUserCache(staffId)
	return nil
}

// ListActiveBosses drives the notification sweep: only bosses own citizens,
// so staff accounts never match any document.
func ListActiveBosses(ctx context.Context) ([]*User, error) {
	db := config.GetDB()
	var users []*User
	err := db.WithContext(ctx).
		Where("is_active = ? AND parent_id IS NULL AND role <> ?", true, UserRoleSuperAdmin).
		Find(&users).Error
	return users, err
}
