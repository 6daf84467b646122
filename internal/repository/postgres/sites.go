// Package postgres holds the site registry. Sites live in Postgres while
// their events live in ClickHouse; the registry is only consulted to
// resolve tenant keys.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Couks/projeto-tfc-sub000/internal/domain"
)

// SiteRepository implements repository.SiteRepository over gorm.
type SiteRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// Connect opens the Postgres connection and migrates the sites table.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.AutoMigrate(&domain.Site{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sites table: %w", err)
	}

	log.Info("Postgres connection established successfully")
	return db, nil
}

// NewSiteRepository creates a site repository
func NewSiteRepository(db *gorm.DB, log *zap.Logger) *SiteRepository {
	return &SiteRepository{db: db, log: log}
}

// FindByKey returns the active site for a key.
func (r *SiteRepository) FindByKey(ctx context.Context, key string) (*domain.Site, error) {
	var site domain.Site
	err := r.db.WithContext(ctx).
		Where("key = ? AND active", key).
		First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to query site: %w", err)
	}
	return &site, nil
}

// Exists reports whether a site key resolves to an active site.
func (r *SiteRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrSiteNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
