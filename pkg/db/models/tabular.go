package models

import (
	"time"

	"gorm.io/datatypes"
)

// TabularFile is an uploaded CSV or XLSX table whose rows annotate images
type TabularFile struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"type:text;not null"`
	Owner     string          `gorm:"type:text;not null;index"`
	Format    string          `gorm:"type:text;not null"`
	Content   CompressedBytes `gorm:"not null"`
	Size      int64           `gorm:"not null"`
	DataHash  string          `gorm:"type:text"`
	Columns   datatypes.JSON
	Processed bool `gorm:"default:false"`

	UploadedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time

	// Relationships
	Images []ImageRecord `gorm:"foreignKey:TabularFileID;constraint:OnDelete:SET NULL"`
}
