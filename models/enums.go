package models

// User roles. super_admin manages agent accounts; level_1 ("boss") owns a
// tenant's data; level_0 ("staff") acts on behalf of exactly one boss.
type UserRole string

const (
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleBoss       UserRole = "level_1"
	UserRoleStaff      UserRole = "level_0"
)

type TxnType string

const (
	TxnTypeIn  TxnType = "IN"
	TxnTypeOut TxnType = "OUT"
)

func (t TxnType) Valid() bool {
	return t == TxnTypeIn || t == TxnTypeOut
}
