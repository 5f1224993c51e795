package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lifeline-dev/lifeline/internal/models"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	return Migrate(DB)
}

// Migrate runs auto-migration for every model on the given connection. Split
// out from MigrateDatabase so tests can migrate their own database handle.
func Migrate(conn *gorm.DB) error {
	models := []interface{}{
		&models.CrewMember{},
		&models.Quarantine{},
		&models.AlertHistory{},
	}

	migrator := conn.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := conn.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
