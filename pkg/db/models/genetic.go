package models

import (
	"time"

	"gorm.io/datatypes"
)

// GeneticDataset is an uploaded breeding spreadsheet and its encrypted original
type GeneticDataset struct {
	ID           uint   `gorm:"primaryKey"`
	Owner        string `gorm:"type:text;not null;index"`
	StoredName   string `gorm:"type:text;not null"`
	FileType     string `gorm:"type:text;not null"`
	Content      []byte `gorm:"not null"`
	TotalRecords int    `gorm:"default:0"`
	Processed    bool   `gorm:"default:false"`
	IsEncrypted  bool   `gorm:"default:false"`
	Metadata     string `gorm:"type:text"` // encrypted JSON

	UploadedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time

	// Relationships
	Records []GeneticRecord `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
}

// GeneticRecord is one row of a genetic dataset
type GeneticRecord struct {
	ID           uint   `gorm:"primaryKey"`
	DatasetID    uint   `gorm:"not null;uniqueIndex:idx_dataset_record_code"`
	RecordNumber int    `gorm:"not null;uniqueIndex:idx_dataset_record_code"`
	F5Code       string `gorm:"type:text;not null;uniqueIndex:idx_dataset_record_code"`

	Location      string `gorm:"type:text"`
	F5FruitNumber string `gorm:"type:text"`
	F6FullName    string `gorm:"type:text"`
	SixthCode     string `gorm:"type:text"`
	FruitNumber   string `gorm:"type:text"`

	PollinationDate *datatypes.Date
	HarvestDate     *datatypes.Date

	PedicelLength         *float64
	PedicelWidth          *float64
	InsertionPeduncleSize *float64
	FruitWeight           *float64
	FruitLength           *float64
	FruitWidth            *float64
	RindThickness         *float64
	RindHardness          *float64
	ApexSize              *float64
	RindStripe            *string `gorm:"type:text"`
	FleshHardness         *string `gorm:"type:text"`
	FleshColor            *string `gorm:"type:text"`
	BrixContent           *float64
	SeedsQuantity         *int
	RemainedSeeds         *int

	// Encrypted JSON payloads
	GeneticSignature string `gorm:"type:text"`
	BreedingData     string `gorm:"type:text"`

	ImageID *uint        `gorm:"index"`
	Image   *ImageRecord `gorm:"foreignKey:ImageID;constraint:OnDelete:SET NULL"`

	CreatedAt time.Time
}
