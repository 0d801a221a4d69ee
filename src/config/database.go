package config

import (
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pos-recipe-engine/src/models"
)

// InitDB opens the PostgreSQL pool and installs the tracing plugin.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormLogger(cfg.DBLogLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		GetLogger().WithError(err).Warn("db connected but failed to install otelgorm plugin")
	}

	GetLogger().WithFields(logrus.Fields{
		"max_open_conns": cfg.MaxOpenConns,
		"max_idle_conns": cfg.MaxIdleConns,
	}).Info("connected to database")
	return db, nil
}

func gormLogger(level string) logger.Interface {
	lvl := logger.Error
	switch level {
	case "silent":
		lvl = logger.Silent
	case "warn":
		lvl = logger.Warn
	case "info":
		lvl = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

// Migrate creates or updates the schema. Partial unique indexes back the
// SKU-per-tenant and one-active-recipe-per-product rules for live rows only,
// so a soft-deleted material frees its SKU.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Material{},
		&models.Recipe{},
		&models.RecipeComponent{},
		&models.InventoryTransaction{},
	); err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

var schemaStatements = []string{
	// Older schemas carried a full unique index that also covered deleted rows.
	`DROP INDEX IF EXISTS idx_material_tenant_sku`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_materials_tenant_sku
		ON materials (tenant_id, sku)
		WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_recipes_active_product
		ON recipes (tenant_id, product_id)
		WHERE is_active AND deleted_at IS NULL`,
}
