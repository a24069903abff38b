package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerID(t *testing.T) {
	parentId := 7
	staff := &User{ID: 12, Role: UserRoleStaff, ParentId: &parentId}
	boss := &User{ID: 7, Role: UserRoleBoss}

	assert.Equal(t, 7, staff.OwnerID())
	assert.Equal(t, 7, boss.OwnerID())
}

func TestIsBoss(t *testing.T) {
	parentId := 7
	assert.True(t, (&User{ID: 7}).IsBoss())
	assert.False(t, (&User{ID: 12, ParentId: &parentId}).IsBoss())
}

func TestTxnTypeValid(t *testing.T) {
	assert.True(t, TxnTypeIn.Valid())
	assert.True(t, TxnTypeOut.Valid())
	assert.False(t, TxnType("TRANSFER").Valid())
	assert.False(t, TxnType("").Valid())
}
