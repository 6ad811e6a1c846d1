package database

import (
	"fmt"
	"time"

	"artline-cms/internal/domain/contact"
	"artline-cms/internal/domain/content"
	"artline-cms/internal/domain/media"
	"artline-cms/internal/domain/users"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models is everything AutoMigrate manages, in dependency order.
var Models = []interface{}{
	&users.User{},
	&content.ContentItem{},
	&content.ContentRevision{},
	&contact.Submission{},
	&media.File{},
}

// InitDB connects to Postgres and migrates the schema.
func InitDB(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(log, logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Msg("connected and migrated")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
