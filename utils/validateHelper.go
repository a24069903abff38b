package utils

import (
	"context"
	"errors"
	"reflect"

	"bitbucket.org/princerto/rto_backend/config"
)

// ValidateOwnedResourceId checks that id exists AND belongs to ownerId.
// Out-of-scope rows look identical to missing rows on purpose: callers must
// not be able to probe other teams' data.
func ValidateOwnedResourceId[T any](ctx context.Context, ownerId int, id interface{}) error {
	count, err := OwnedResourceCountWhere[T](ctx, []int{ownerId}, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// ValidateUnique rejects duplicates of column=value within one owner's data.
func ValidateUnique[T any](ctx context.Context, ownerId int, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = OwnedResourceCountWhere[T](ctx, []int{ownerId}, column+" = ?", value)
	} else {
		count, err = OwnedResourceCountWhere[T](ctx, []int{ownerId}, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// OwnedResourceCountWhere counts records using WHERE user_id IN (ownerIds) AND $condition.
// An empty ownerIds slice skips the scope (super-admin surfaces only).
func OwnedResourceCountWhere[T any](ctx context.Context, ownerIds []int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if len(ownerIds) > 0 {
		dbCtx.Where("user_id IN ?", ownerIds)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
