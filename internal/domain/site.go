package domain

import "time"

// Site is a tenant. Every event row and every analytics query is scoped by
// the site key.
type Site struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;size:64"`
	Name      string `gorm:"size:255"`
	Domain    string `gorm:"size:255"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
