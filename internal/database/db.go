package database

import (
	"fmt"
	"time"

	"logiflow/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the PostgreSQL pool. Schema changes are applied by Migrate.
func NewConnection(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(ParseLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates every table of the schema
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Role{}, "Permissions", &model.RolePermission{}); err != nil {
		return fmt.Errorf("failed to set up role_permissions: %w", err)
	}

	err := db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.UserGroup{},
		&model.Supplier{},
		&model.Order{},
		&model.Delivery{},
		&model.DlcProduct{},
		&model.Role{},
		&model.Permission{},
		&model.RolePermission{},
		&model.UserRole{},
		&model.Session{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	log.Info().Msg("database schema is up to date")
	return nil
}

// BackfillUserRoles creates the relational role row of users that only carry the legacy role column
func BackfillUserRoles(db *gorm.DB) (int64, error) {
	res := db.Exec(`
		INSERT INTO user_roles (user_id, role_id, created_at)
		SELECT u.id, r.id, ?
		FROM users u
		INNER JOIN roles r ON r.name = u.role
		WHERE NOT EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = u.id)
	`, time.Now())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to backfill user roles: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
