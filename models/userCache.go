package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
)

const userCacheTTL = 5 * time.Minute

func userCacheKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}

// CachedUserById serves the per-request user lookup the auth middleware does.
// Redis being down degrades to a plain DB read.
func CachedUserById(ctx context.Context, id int) (*User, error) {
	var user User
	exists, err := config.GetRedisObject(userCacheKey(id), &user)
	if err == nil && exists {
		return &user, nil
	}

	fresh, err := GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = config.SetRedisObject(userCacheKey(id), fresh, userCacheTTL)
	return fresh, nil
}

func invalidateUserCache(id int) {
	_ = config.RemoveRedisKey(userCacheKey(id))
}
