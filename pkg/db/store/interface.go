package store

import (
	"context"
	"errors"
	"time"

	"github.com/mwantia/agrilink/pkg/db/migrations"
	"github.com/mwantia/agrilink/pkg/db/models"
)

var ErrNotFound = errors.New("record not found")

// UpsertResult describes what an attribute upsert wrote.
type UpsertResult int

const (
	UpsertUnchanged UpsertResult = iota
	UpsertCreated
	UpsertUpdated
)

// ImageFilter narrows image listings. Empty fields are ignored.
type ImageFilter struct {
	SampleID      string
	TabularFileID *uint
	MetadataLabel string
	MetadataValue string
}

// Stats summarizes an owner's stored data
type Stats struct {
	TabularFiles    int64
	ProcessedFiles  int64
	Images          int64
	LinkedImages    int64
	Attributes      int64
	GeneticDatasets int64
	GeneticRecords  int64
	LastUpload      *time.Time
}

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Rollback(ctx context.Context) error
	MigrationStatus(ctx context.Context) ([]migrations.MigrationStatus, error)
	Health(ctx context.Context) error
	Transaction(ctx context.Context, fn func(tx MetadataStore) error) error

	// Tabular file operations
	CreateTabularFile(ctx context.Context, file *models.TabularFile) error
	GetTabularFile(ctx context.Context, owner string, id uint) (*models.TabularFile, error)
	ListTabularFiles(ctx context.Context, owner string) ([]models.TabularFile, error)
	UpdateTabularFile(ctx context.Context, file *models.TabularFile) error
	DeleteTabularFile(ctx context.Context, owner string, id uint) error

	// Image operations
	CreateImage(ctx context.Context, image *models.ImageRecord) error
	GetImage(ctx context.Context, owner string, id uint) (*models.ImageRecord, error)
	ListImages(ctx context.Context, owner string, filter ImageFilter) ([]models.ImageRecord, error)
	FindImagesBySample(ctx context.Context, owner, sampleID string) ([]models.ImageRecord, error)
	SetImageTabularFile(ctx context.Context, imageID uint, fileID *uint) error
	DeleteImage(ctx context.Context, owner string, id uint) error

	// Attribute operations
	UpsertAttribute(ctx context.Context, imageID uint, label, value string) (UpsertResult, error)
	ListAttributes(ctx context.Context, imageID uint) ([]models.ImageAttribute, error)
	MetadataLabels(ctx context.Context, owner string) ([]string, error)
	MetadataValues(ctx context.Context, owner, label string) ([]string, error)

	// Genetic operations
	CreateGeneticDataset(ctx context.Context, dataset *models.GeneticDataset) error
	GetGeneticDataset(ctx context.Context, owner string, id uint) (*models.GeneticDataset, error)
	ListGeneticDatasets(ctx context.Context, owner string) ([]models.GeneticDataset, error)
	UpdateGeneticDataset(ctx context.Context, dataset *models.GeneticDataset) error
	DeleteGeneticDataset(ctx context.Context, owner string, id uint) error
	CreateGeneticRecords(ctx context.Context, records []models.GeneticRecord, batchSize int) error
	ListGeneticRecords(ctx context.Context, datasetID uint) ([]models.GeneticRecord, error)

	// Dashboard
	Stats(ctx context.Context, owner string) (*Stats, error)
}
