package entity

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name         string  `gorm:"type:varchar(255);not null"`
	Category     string  `gorm:"type:varchar(100);not null"`
	CategoryLink string  `gorm:"type:varchar(100)"`
	Description  *string `gorm:"type:text"`

	Price         float64 `gorm:"not null"`
	OriginalPrice float64
	Rating        float64 `gorm:"default:5.0"`
	ReviewCount   int     `gorm:"default:0"`

	Image    *string `gorm:"type:text"`
	Badge    *string `gorm:"type:varchar(50)"`
	DealEnds *string `gorm:"type:varchar(50)"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
