package models

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrations returns the ordered schema migrations.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20261001-0000",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&Site{},
					&Location{},
					&SystemRack{},
					&SystemType{},
					&SystemStatus{},
					&ServerModel{},
					&OperatingSystem{},
					&System{},
					&KeyValue{},
					&ScheduledTask{},
					&SystemChangeLog{},
					&Revision{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&Revision{}, &SystemChangeLog{}, &ScheduledTask{}, &KeyValue{},
					&System{}, &OperatingSystem{}, &ServerModel{}, &SystemStatus{},
					&SystemType{}, &SystemRack{}, &Location{}, &Site{},
				)
			},
		},
		{
			ID: "20261001-0001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&User{}, &UserProfile{}, &SystemLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&SystemLog{}, &UserProfile{}, &User{})
			},
		},
		{
			ID: "20261001-0002",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&UserLocation{},
					&Owner{},
					&UnmanagedSystem{},
					&UnmanagedHistory{},
					&UserLicense{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&UserLicense{}, &UnmanagedHistory{}, &UnmanagedSystem{}, &Owner{}, &UserLocation{},
				)
			},
		},
		{
			ID: "20261001-0003",
			Migrate: func(tx *gorm.DB) error {
				return seedStatuses(tx)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Where("status IN ?", []string{StatusBuilding, StatusDecommissioned}).
					Delete(&SystemStatus{}).Error
			},
		},
	}
}

// Migrate applies every pending migration.
func Migrate(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, Migrations()).Migrate()
}

// RollbackLast reverts the most recently applied migration.
func RollbackLast(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, Migrations()).RollbackLast()
}

func seedStatuses(tx *gorm.DB) error {
	defaults := []SystemStatus{
		{Status: StatusBuilding, Color: "yellow", ColorCode: "#ffff00"},
		{Status: "production", Color: "green", ColorCode: "#00ff00"},
		{Status: StatusDecommissioned, Color: "red", ColorCode: "#ff0000"},
	}
	for _, status := range defaults {
		if err := tx.Where(SystemStatus{Status: status.Status}).FirstOrCreate(&status).Error; err != nil {
			return err
		}
	}
	return nil
}
