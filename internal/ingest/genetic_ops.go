package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/agrilink/internal/events"
	"github.com/mwantia/agrilink/pkg/db/models"
	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/tabular"
)

// GeneticUpload is a genetic spreadsheet plus optional record images.
type GeneticUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	Images      []ImageUpload
}

type GeneticUploadResult struct {
	ID              uint         `json:"id"`
	TotalRecords    int          `json:"total_records"`
	SkippedRows     int          `json:"skipped_rows"`
	ImagesLinked    int          `json:"images_linked"`
	ImagesUnmatched int          `json:"images_unmatched"`
	Skipped         []RowOutcome `json:"skipped,omitempty"`
}

// DatasetMetadata is stored encrypted alongside each dataset.
type DatasetMetadata struct {
	OriginalFilename string `json:"original_filename"`
	OriginalSize     int64  `json:"original_size"`
	ContentType      string `json:"content_type"`
	EncryptedAt      string `json:"encrypted_at"`
}

type DatasetSummary struct {
	ID           uint      `json:"id"`
	Filename     string    `json:"filename"`
	FileType     string    `json:"file_type"`
	TotalRecords int       `json:"total_records"`
	Processed    bool      `json:"processed"`
	IsEncrypted  bool      `json:"is_encrypted"`
	UploadedAt   time.Time `json:"uploaded_at"`
	OriginalSize int64     `json:"original_size,omitempty"`
}

// RecordView is a genetic record with its payloads decrypted.
type RecordView struct {
	ID               uint   `json:"id"`
	RecordNumber     int    `json:"record_number"`
	F5Code           string `json:"f5_code"`
	Location         string `json:"location"`
	F6FullName       string `json:"f6_full_name"`
	ImageID          *uint  `json:"image_id"`
	GeneticSignature any    `json:"genetic_signature"`
	BreedingData     any    `json:"breeding_data"`
}

type DatasetDetail struct {
	DatasetSummary
	Records []RecordView `json:"records"`
}

// Download is the original uploaded file.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadGenetic validates and stores a genetic spreadsheet, builds its
// records and links any images whose filename is "<No.>_<F5 Code>".
// A failure at any step leaves no dataset behind.
func (s *Service) UploadGenetic(ctx context.Context, owner string, upload GeneticUpload) (*GeneticUploadResult, error) {
	name := filepath.Base(upload.Filename)
	table, format, err := parseUpload(name, upload.Data)
	if err != nil {
		return nil, err
	}
	if err := ValidateGeneticColumns(table); err != nil {
		return nil, err
	}

	content := upload.Data
	if s.opts.EncryptUploads {
		content, err = s.cipher.EncryptBytes(upload.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt upload: %w", err)
		}
	}

	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = format.ContentType()
	}
	metadata, err := s.cipher.EncryptJSON(DatasetMetadata{
		OriginalFilename: name,
		OriginalSize:     int64(len(upload.Data)),
		ContentType:      contentType,
		EncryptedAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt dataset metadata: %w", err)
	}

	dataset := &models.GeneticDataset{
		Owner:       owner,
		StoredName:  "genetic_data/" + uuid.NewString() + "." + format.String(),
		FileType:    format.String(),
		Content:     content,
		IsEncrypted: s.opts.EncryptUploads,
		Metadata:    metadata,
	}
	if err := s.store.CreateGeneticDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}

	build, err := BuildGeneticRecords(table, dataset.ID, s.cipher)
	if err != nil {
		s.discardDataset(ctx, owner, dataset.ID, nil)
		return nil, err
	}

	skipped := build.SkippedOutcomes()
	for _, outcome := range skipped {
		s.log.Warn("Skipped row %d of '%s': %s", outcome.Line, name, outcome.Reason)
	}
	geneticRowsTotal.WithLabelValues("built").Add(float64(build.Built))
	geneticRowsTotal.WithLabelValues("skipped").Add(float64(build.Skipped))

	if len(build.Records) == 0 {
		s.discardDataset(ctx, owner, dataset.ID, nil)
		return nil, invalid("no valid records found in '%s'", name)
	}

	linked, unmatched, images, err := s.linkGeneticImages(ctx, owner, build.Records, upload.Images)
	if err != nil {
		s.discardDataset(ctx, owner, dataset.ID, images)
		return nil, err
	}

	if err := s.store.CreateGeneticRecords(ctx, build.Records, s.opts.BatchSize); err != nil {
		s.discardDataset(ctx, owner, dataset.ID, images)
		return nil, fmt.Errorf("failed to store genetic records: %w", err)
	}

	dataset.TotalRecords = len(build.Records)
	dataset.Processed = true
	if err := s.store.UpdateGeneticDataset(ctx, dataset); err != nil {
		s.discardDataset(ctx, owner, dataset.ID, images)
		return nil, fmt.Errorf("failed to update dataset %d: %w", dataset.ID, err)
	}

	result := &GeneticUploadResult{
		ID:              dataset.ID,
		TotalRecords:    dataset.TotalRecords,
		SkippedRows:     build.Skipped,
		ImagesLinked:    linked,
		ImagesUnmatched: unmatched,
		Skipped:         skipped,
	}

	s.log.Info("Stored genetic dataset %d with %d records (%d rows skipped, %d images linked)",
		dataset.ID, result.TotalRecords, result.SkippedRows, linked)
	s.publish(ctx, events.Event{
		Type:       events.TypeGeneticUploaded,
		Owner:      owner,
		ResourceID: dataset.ID,
		Payload:    result,
	})
	return result, nil
}

// RecordImageKey is the filename stem that links an image to a record.
func RecordImageKey(recordNumber int, f5Code string) string {
	return strconv.Itoa(recordNumber) + "_" + f5Code
}

func (s *Service) linkGeneticImages(ctx context.Context, owner string, records []models.GeneticRecord, uploads []ImageUpload) (int, int, []models.ImageRecord, error) {
	if len(uploads) == 0 {
		return 0, 0, nil, nil
	}

	index := make(map[string]int, len(records))
	for i, record := range records {
		index[strings.ToLower(RecordImageKey(record.RecordNumber, record.F5Code))] = i
	}

	linked, unmatched := 0, 0
	images := make([]models.ImageRecord, 0, len(uploads))
	for _, upload := range uploads {
		base := filepath.Base(upload.Filename)
		stem := strings.TrimSuffix(base, filepath.Ext(base))

		i, ok := index[strings.ToLower(stem)]
		if !ok || records[i].ImageID != nil {
			s.log.Debug("Image '%s' matches no genetic record", base)
			unmatched++
			continue
		}

		record := &records[i]
		key := RecordImageKey(record.RecordNumber, record.F5Code)
		image, err := s.storeImage(ctx, s.store, owner, key, "Genetic record "+key, nil, upload)
		if err != nil {
			return linked, unmatched, images, err
		}
		images = append(images, *image)
		record.ImageID = &image.ID
		linked++
	}
	return linked, unmatched, images, nil
}

func (s *Service) discardDataset(ctx context.Context, owner string, id uint, images []models.ImageRecord) {
	for _, image := range images {
		if err := s.store.DeleteImage(ctx, owner, image.ID); err != nil {
			s.log.Warn("Failed to remove image %d of discarded dataset %d: %v", image.ID, id, err)
		}
		s.deleteBlob(ctx, image.BlobKey)
	}
	if err := s.store.DeleteGeneticDataset(ctx, owner, id); err != nil {
		s.log.Warn("Failed to remove discarded dataset %d: %v", id, err)
	}
}

func (s *Service) summarize(dataset *models.GeneticDataset) DatasetSummary {
	summary := DatasetSummary{
		ID:           dataset.ID,
		Filename:     path.Base(dataset.StoredName),
		FileType:     dataset.FileType,
		TotalRecords: dataset.TotalRecords,
		Processed:    dataset.Processed,
		IsEncrypted:  dataset.IsEncrypted,
		UploadedAt:   dataset.UploadedAt,
	}

	var metadata DatasetMetadata
	if err := s.cipher.DecodeJSON(dataset.Metadata, &metadata); err == nil && metadata.OriginalFilename != "" {
		summary.Filename = metadata.OriginalFilename
		summary.OriginalSize = metadata.OriginalSize
	}
	return summary
}

func (s *Service) ListGenetic(ctx context.Context, owner string) ([]DatasetSummary, error) {
	datasets, err := s.store.ListGeneticDatasets(ctx, owner)
	if err != nil {
		return nil, err
	}

	summaries := make([]DatasetSummary, 0, len(datasets))
	for i := range datasets {
		summaries = append(summaries, s.summarize(&datasets[i]))
	}
	return summaries, nil
}

// GetGenetic returns a dataset with all record payloads decrypted. Payloads
// that cannot be decrypted are returned as stored.
func (s *Service) GetGenetic(ctx context.Context, owner string, id uint) (*DatasetDetail, error) {
	dataset, err := s.store.GetGeneticDataset(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListGeneticRecords(ctx, dataset.ID)
	if err != nil {
		return nil, err
	}

	detail := &DatasetDetail{
		DatasetSummary: s.summarize(dataset),
		Records:        make([]RecordView, 0, len(records)),
	}
	for _, record := range records {
		detail.Records = append(detail.Records, RecordView{
			ID:               record.ID,
			RecordNumber:     record.RecordNumber,
			F5Code:           record.F5Code,
			Location:         record.Location,
			F6FullName:       record.F6FullName,
			ImageID:          record.ImageID,
			GeneticSignature: s.cipher.DecryptJSON(record.GeneticSignature),
			BreedingData:     s.cipher.DecryptJSON(record.BreedingData),
		})
	}
	return detail, nil
}

// DeleteGenetic removes a dataset, its records and the images linked to them.
func (s *Service) DeleteGenetic(ctx context.Context, owner string, id uint) error {
	dataset, err := s.store.GetGeneticDataset(ctx, owner, id)
	if err != nil {
		return err
	}
	records, err := s.store.ListGeneticRecords(ctx, dataset.ID)
	if err != nil {
		return err
	}

	var keys []string
	err = s.store.Transaction(ctx, func(tx store.MetadataStore) error {
		if err := tx.DeleteGeneticDataset(ctx, owner, dataset.ID); err != nil {
			return err
		}
		for _, record := range records {
			if record.ImageID == nil {
				continue
			}
			image, err := tx.GetImage(ctx, owner, *record.ImageID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.DeleteImage(ctx, owner, image.ID); err != nil {
				return err
			}
			keys = append(keys, image.BlobKey)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		s.deleteBlob(ctx, key)
	}
	s.log.Info("Deleted genetic dataset %d with %d records", dataset.ID, len(records))
	return nil
}

// DownloadGenetic returns the original uploaded bytes.
func (s *Service) DownloadGenetic(ctx context.Context, owner string, id uint) (*Download, error) {
	dataset, err := s.store.GetGeneticDataset(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	data := dataset.Content
	if dataset.IsEncrypted {
		data, err = s.cipher.DecryptBytes(dataset.Content)
		if err != nil {
			return nil, err
		}
	}

	download := &Download{
		Filename: path.Base(dataset.StoredName),
		Data:     data,
	}
	if format, err := tabular.ParseFormat(dataset.FileType); err == nil {
		download.ContentType = format.ContentType()
	}

	var metadata DatasetMetadata
	if err := s.cipher.DecodeJSON(dataset.Metadata, &metadata); err == nil {
		if metadata.OriginalFilename != "" {
			download.Filename = metadata.OriginalFilename
		}
		if metadata.ContentType != "" {
			download.ContentType = metadata.ContentType
		}
	}
	return download, nil
}
