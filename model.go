package acrsample

import (
	"time"

	"gorm.io/gorm"
)

// A Model is the essential data points for primary ID-based models,
// indicating when a record was created, last updated and soft deleted.
type Model struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt"`
}
