package database

import (
	"context"
	"errors"
	"fmt"

	"farmacia/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database. TranslateError is always on so
// repositories can rely on gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Laboratorio{}, &models.Medicamento{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

var seedLaboratorios = []models.Laboratorio{
	{ID: 1, NomeLaboratorio: "EMS"},
	{ID: 2, NomeLaboratorio: "Eurofarma"},
	{ID: 3, NomeLaboratorio: "Aché"},
	{ID: 4, NomeLaboratorio: "Medley"},
}

// Seed inserts the default laboratorios. Existing rows are left alone, so
// running it twice is harmless.
func Seed(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	for _, lab := range seedLaboratorios {
		var existing models.Laboratorio
		err := db.WithContext(ctx).First(&existing, "id = ?", lab.ID).Error
		if err == nil {
			log.Debug().Uint("laboratorio_id", lab.ID).Msg("laboratorio already seeded")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check laboratorio %d: %w", lab.ID, err)
		}

		lab := lab
		if err := db.WithContext(ctx).Create(&lab).Error; err != nil {
			return fmt.Errorf("failed to seed laboratorio %s: %w", lab.NomeLaboratorio, err)
		}
		log.Info().Uint("laboratorio_id", lab.ID).Str("nome", lab.NomeLaboratorio).Msg("seeded laboratorio")
	}
	return nil
}
