package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/agrilink/pkg/db/migrations"
	"github.com/mwantia/agrilink/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore implements MetadataStore on any gorm dialect
type GormStore struct {
	db      *gorm.DB
	dialect string
}

// DB returns the underlying GORM database instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Dialect returns the name of the configured database driver
func (s *GormStore) Dialect() string {
	return s.dialect
}

// ParseLogLevel maps a config value to a gorm logger level
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return logger.Error
	case "warn", "warning":
		return logger.Warn
	case "info", "debug":
		return logger.Info
	default:
		return logger.Silent
	}
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	if level == 0 {
		level = logger.Silent
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Connect verifies the database connection
func (s *GormStore) Connect(ctx context.Context) error {
	return s.Health(ctx)
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs all pending schema migrations
func (s *GormStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

func (s *GormStore) Rollback(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Rollback(ctx)
}

func (s *GormStore) MigrationStatus(ctx context.Context) ([]migrations.MigrationStatus, error) {
	return migrations.NewMigrator(s.db).Status(ctx)
}

// Health checks database connectivity
func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn against a store bound to a single database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx MetadataStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, dialect: s.dialect})
	})
}

// Tabular file operations

func (s *GormStore) CreateTabularFile(ctx context.Context, file *models.TabularFile) error {
	return s.db.WithContext(ctx).Create(file).Error
}

func (s *GormStore) GetTabularFile(ctx context.Context, owner string, id uint) (*models.TabularFile, error) {
	var file models.TabularFile
	err := s.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).First(&file).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

func (s *GormStore) ListTabularFiles(ctx context.Context, owner string) ([]models.TabularFile, error) {
	var files []models.TabularFile
	err := s.db.WithContext(ctx).
		Omit("content").
		Where("owner = ?", owner).
		Order("uploaded_at DESC, id DESC").
		Find(&files).Error
	return files, err
}

func (s *GormStore) UpdateTabularFile(ctx context.Context, file *models.TabularFile) error {
	return s.db.WithContext(ctx).Save(file).Error
}

// DeleteTabularFile removes the file and detaches images linked from it
func (s *GormStore) DeleteTabularFile(ctx context.Context, owner string, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner = ?", id, owner).Delete(&models.TabularFile{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.ImageRecord{}).
			Where("tabular_file_id = ?", id).
			Update("tabular_file_id", nil).Error
	})
}

// Image operations

func (s *GormStore) CreateImage(ctx context.Context, image *models.ImageRecord) error {
	return s.db.WithContext(ctx).Create(image).Error
}

func (s *GormStore) GetImage(ctx context.Context, owner string, id uint) (*models.ImageRecord, error) {
	var image models.ImageRecord
	err := s.db.WithContext(ctx).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("label ASC")
		}).
		Where("id = ? AND owner = ?", id, owner).
		First(&image).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &image, nil
}

func (s *GormStore) ListImages(ctx context.Context, owner string, filter ImageFilter) ([]models.ImageRecord, error) {
	var images []models.ImageRecord
	query := s.db.WithContext(ctx).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("label ASC")
		}).
		Where("owner = ?", owner)

	if filter.SampleID != "" {
		query = query.Where("LOWER(sample_id) LIKE ? ESCAPE '\\'", containsPattern(filter.SampleID))
	}
	if filter.TabularFileID != nil {
		query = query.Where("tabular_file_id = ?", *filter.TabularFileID)
	}
	if filter.MetadataLabel != "" {
		sub := s.db.Model(&models.ImageAttribute{}).Select("image_id").Where("label = ?", filter.MetadataLabel)
		if filter.MetadataValue != "" {
			sub = sub.Where("LOWER(value) LIKE ? ESCAPE '\\'", containsPattern(filter.MetadataValue))
		}
		query = query.Where("id IN (?)", sub)
	}

	err := query.Order("uploaded_at DESC, id DESC").Find(&images).Error
	return images, err
}

func containsPattern(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(strings.ToLower(value)) + "%"
}

// FindImagesBySample returns images whose sample key equals sampleID exactly
func (s *GormStore) FindImagesBySample(ctx context.Context, owner, sampleID string) ([]models.ImageRecord, error) {
	var images []models.ImageRecord
	err := s.db.WithContext(ctx).
		Where("owner = ? AND sample_id = ?", owner, sampleID).
		Order("id ASC").
		Find(&images).Error
	return images, err
}

func (s *GormStore) SetImageTabularFile(ctx context.Context, imageID uint, fileID *uint) error {
	return s.db.WithContext(ctx).
		Model(&models.ImageRecord{}).
		Where("id = ?", imageID).
		Update("tabular_file_id", fileID).Error
}

// DeleteImage removes an image, its attributes and any genetic record links
func (s *GormStore) DeleteImage(ctx context.Context, owner string, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner = ?", id, owner).Delete(&models.ImageRecord{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("image_id = ?", id).Delete(&models.ImageAttribute{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.GeneticRecord{}).
			Where("image_id = ?", id).
			Update("image_id", nil).Error
	})
}

// Attribute operations

// UpsertAttribute writes value for (imageID, label). Identical values are not rewritten.
func (s *GormStore) UpsertAttribute(ctx context.Context, imageID uint, label, value string) (UpsertResult, error) {
	db := s.db.WithContext(ctx)

	var existing models.ImageAttribute
	err := db.Where("image_id = ? AND label = ?", imageID, label).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		attribute := models.ImageAttribute{ImageID: imageID, Label: label, Value: value}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "image_id"}, {Name: "label"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&attribute).Error
		if err != nil {
			return UpsertUnchanged, err
		}
		return UpsertCreated, nil

	case err != nil:
		return UpsertUnchanged, err

	case existing.Value == value:
		return UpsertUnchanged, nil
	}

	if err := db.Model(&existing).Update("value", value).Error; err != nil {
		return UpsertUnchanged, err
	}
	return UpsertUpdated, nil
}

func (s *GormStore) ListAttributes(ctx context.Context, imageID uint) ([]models.ImageAttribute, error) {
	var attributes []models.ImageAttribute
	err := s.db.WithContext(ctx).
		Where("image_id = ?", imageID).
		Order("label ASC").
		Find(&attributes).Error
	return attributes, err
}

func (s *GormStore) ownedImages() *gorm.DB {
	return s.db.Model(&models.ImageRecord{}).Select("id")
}

// MetadataLabels returns the distinct attribute labels on the owner's images
func (s *GormStore) MetadataLabels(ctx context.Context, owner string) ([]string, error) {
	labels := make([]string, 0)
	err := s.db.WithContext(ctx).
		Model(&models.ImageAttribute{}).
		Distinct("label").
		Where("image_id IN (?)", s.ownedImages().Where("owner = ?", owner)).
		Order("label ASC").
		Pluck("label", &labels).Error
	return labels, err
}

// MetadataValues returns the distinct values recorded under label
func (s *GormStore) MetadataValues(ctx context.Context, owner, label string) ([]string, error) {
	values := make([]string, 0)
	err := s.db.WithContext(ctx).
		Model(&models.ImageAttribute{}).
		Distinct("value").
		Where("label = ? AND image_id IN (?)", label, s.ownedImages().Where("owner = ?", owner)).
		Order("value ASC").
		Pluck("value", &values).Error
	return values, err
}

// Genetic operations

func (s *GormStore) CreateGeneticDataset(ctx context.Context, dataset *models.GeneticDataset) error {
	return s.db.WithContext(ctx).Create(dataset).Error
}

func (s *GormStore) GetGeneticDataset(ctx context.Context, owner string, id uint) (*models.GeneticDataset, error) {
	var dataset models.GeneticDataset
	err := s.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).First(&dataset).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &dataset, nil
}

func (s *GormStore) ListGeneticDatasets(ctx context.Context, owner string) ([]models.GeneticDataset, error) {
	var datasets []models.GeneticDataset
	err := s.db.WithContext(ctx).
		Omit("content").
		Where("owner = ?", owner).
		Order("uploaded_at DESC, id DESC").
		Find(&datasets).Error
	return datasets, err
}

func (s *GormStore) UpdateGeneticDataset(ctx context.Context, dataset *models.GeneticDataset) error {
	return s.db.WithContext(ctx).Save(dataset).Error
}

// DeleteGeneticDataset removes the dataset and its records. Linked images
// are left to the caller, which also owns their stored bytes.
func (s *GormStore) DeleteGeneticDataset(ctx context.Context, owner string, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner = ?", id, owner).Delete(&models.GeneticDataset{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("dataset_id = ?", id).Delete(&models.GeneticRecord{}).Error
	})
}

// CreateGeneticRecords inserts records in batched statements
func (s *GormStore) CreateGeneticRecords(ctx context.Context, records []models.GeneticRecord, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return s.db.WithContext(ctx).Omit("Image").CreateInBatches(&records, batchSize).Error
}

func (s *GormStore) ListGeneticRecords(ctx context.Context, datasetID uint) ([]models.GeneticRecord, error) {
	var records []models.GeneticRecord
	err := s.db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("record_number ASC, id ASC").
		Find(&records).Error
	return records, err
}

// Dashboard

func (s *GormStore) Stats(ctx context.Context, owner string) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{}

	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&stats.TabularFiles, db.Model(&models.TabularFile{}).Where("owner = ?", owner)},
		{&stats.ProcessedFiles, db.Model(&models.TabularFile{}).Where("owner = ? AND processed = ?", owner, true)},
		{&stats.Images, db.Model(&models.ImageRecord{}).Where("owner = ?", owner)},
		{&stats.LinkedImages, db.Model(&models.ImageRecord{}).Where("owner = ? AND tabular_file_id IS NOT NULL", owner)},
		{&stats.Attributes, db.Model(&models.ImageAttribute{}).Where("image_id IN (?)", s.ownedImages().Where("owner = ?", owner))},
		{&stats.GeneticDatasets, db.Model(&models.GeneticDataset{}).Where("owner = ?", owner)},
		{&stats.GeneticRecords, db.Model(&models.GeneticRecord{}).Where("dataset_id IN (?)",
			s.db.Model(&models.GeneticDataset{}).Select("id").Where("owner = ?", owner))},
	}
	for _, c := range counts {
		if err := c.query.Count(c.target).Error; err != nil {
			return nil, fmt.Errorf("failed to count dashboard totals: %w", err)
		}
	}

	var latest []time.Time
	for _, model := range []any{&models.TabularFile{}, &models.ImageRecord{}, &models.GeneticDataset{}} {
		var uploads []time.Time
		err := db.Model(model).
			Where("owner = ?", owner).
			Order("uploaded_at DESC").
			Limit(1).
			Pluck("uploaded_at", &uploads).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query latest upload: %w", err)
		}
		latest = append(latest, uploads...)
	}
	for i := range latest {
		if stats.LastUpload == nil || latest[i].After(*stats.LastUpload) {
			stats.LastUpload = &latest[i]
		}
	}

	return stats, nil
}
