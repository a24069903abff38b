package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireSettlementLock serializes payment settlement per client across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that runs the settlement transaction.
func AcquireSettlementLock(tx *gorm.DB, clientId int) error {
	lockName := fmt.Sprintf("settlement:%d", clientId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire settlement lock for client_id=%d", clientId)
	}
	return nil
}

func ReleaseSettlementLock(tx *gorm.DB, clientId int) {
	lockName := fmt.Sprintf("settlement:%d", clientId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
