package models

import (
	"time"
)

// ImageRecord is a crop image identified by its sample key
type ImageRecord struct {
	ID            uint   `gorm:"primaryKey"`
	SampleID      string `gorm:"type:text;not null;index:idx_owner_sample"`
	Owner         string `gorm:"type:text;not null;index:idx_owner_sample"`
	Description   string `gorm:"type:text"`
	BlobKey       string `gorm:"type:text;not null"`
	ContentType   string `gorm:"type:text"`
	Filename      string `gorm:"type:text"`
	Size          int64
	TabularFileID *uint `gorm:"index"`

	UploadedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time

	// Relationships
	Attributes []ImageAttribute `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
}

// ImageAttribute is a label/value pair attached to an image; one per label
type ImageAttribute struct {
	ID      uint   `gorm:"primaryKey"`
	ImageID uint   `gorm:"not null;uniqueIndex:idx_image_label"`
	Label   string `gorm:"type:text;not null;uniqueIndex:idx_image_label;index:idx_attribute_label"`
	Value   string `gorm:"type:text;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
