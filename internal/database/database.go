package database

import (
	"github.com/bugboard/api/internal/config"
	"github.com/bugboard/api/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Bug{},
		&model.RefreshToken{},
		&model.DispatchRecord{},
	)
	if err != nil {
		return err
	}

	// Aggregation and recipient queries scan these columns on every call
	db.Exec("CREATE INDEX IF NOT EXISTS idx_bugs_flair ON bugs(flair)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_bugs_reporter_email ON bugs(reporter_email)")

	return nil
}
