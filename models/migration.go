package models

import "gorm.io/gorm"

// Migrate runs AutoMigrate for every table in dependency order.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&NotificationSettings{},
		&Citizen{},
		&Vehicle{},
		&Tax{},
		&Insurance{},
		&Fitness{},
		&Permit{},
		&Pucc{},
		&Vltd{},
		&SpeedGovernor{},
		&LedgerAccount{},
		&LedgerEntry{},
		&Client{},
		&WorkJob{},
		&License{},
	)
}
