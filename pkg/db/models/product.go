package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmbasket/farmbasket-backend/pkg/enums"
)

// Product represents the canonical catalog listing for a farm vendor.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description *string               `gorm:"column:description"`
	Category    enums.ProductCategory `gorm:"column:category;not null"`
	FarmName    string                `gorm:"column:farm_name;not null"`
	PriceCents  int                   `gorm:"column:price_cents;not null"`
	ImageURL    *string               `gorm:"column:image_url"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an ID when the caller did not.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
