package models

import (
	"context"
	"errors"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
)

// Scope is the authenticated identity every component receives.
// It is the single source of truth for ownership and role checks; nothing
// else re-derives parent-id logic.
type Scope struct {
	UserID   int
	UserName string
	Role     UserRole
	ParentID *int
}

// OwnerID mirrors User.OwnerID for the request scope.
func (s Scope) OwnerID() int {
	if s.ParentID != nil {
		return *s.ParentID
	}
	return s.UserID
}

func (s Scope) IsBoss() bool {
	return s.ParentID == nil
}

func (s Scope) IsSuperAdmin() bool {
	return s.Role == UserRoleSuperAdmin
}

// TeamIDs resolves boss + staff ids for team-wide reads.
func (s Scope) TeamIDs(ctx context.Context) ([]int, error) {
	bossId := s.OwnerID()
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

var ErrorUnauthenticated = errors.New("unauthenticated")

// ScopeFromContext reads the identity the auth middleware attached.
func ScopeFromContext(ctx context.Context) (Scope, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return Scope{}, ErrorUnauthenticated
	}
	name, _ := utils.GetUserNameFromContext(ctx)
	role, _ := utils.GetRoleFromContext(ctx)

	var parentId *int
	if pid, ok := utils.GetParentIdFromContext(ctx); ok && pid != 0 {
		parentId = &pid
	}

	return Scope{
		UserID:   userId,
		UserName: name,
		Role:     UserRole(role),
		ParentID: parentId,
	}, nil
}
