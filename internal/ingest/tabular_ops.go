package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mwantia/agrilink/internal/events"
	"github.com/mwantia/agrilink/pkg/db/models"
	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/fingerprint"
	"github.com/mwantia/agrilink/pkg/tabular"
	"gorm.io/datatypes"
)

// TabularUpload is an uploaded CSV/XLSX file.
type TabularUpload struct {
	Name     string
	Filename string
	Data     []byte
}

// ProcessResult is returned by every operation that runs the matcher.
type ProcessResult struct {
	ID uint `json:"id"`
	*MatchResult
	IsUpdate  bool `json:"is_update"`
	Unchanged bool `json:"unchanged"`
}

// Preview is the head of a stored table with inferred column types.
type Preview struct {
	ID        uint                          `json:"id"`
	Name      string                        `json:"name"`
	Columns   []string                      `json:"columns"`
	Types     map[string]tabular.ColumnType `json:"column_types"`
	Rows      []tabular.Row                 `json:"rows"`
	TotalRows int                           `json:"total_rows"`
}

// UploadTabular stores a new tabular file and links its rows to images.
func (s *Service) UploadTabular(ctx context.Context, owner string, upload TabularUpload) (*ProcessResult, error) {
	table, format, err := parseUpload(upload.Filename, upload.Data)
	if err != nil {
		return nil, err
	}
	if !table.HasColumn(SampleColumn) {
		return nil, &MissingColumnsError{Columns: []string{SampleColumn}}
	}

	name := upload.Name
	if name == "" {
		name = filepath.Base(upload.Filename)
	}
	hash := fingerprint.Sum(upload.Data)

	file := &models.TabularFile{
		Name:    name,
		Owner:   owner,
		Format:  format.String(),
		Content: models.CompressedBytes(upload.Data),
		Size:    int64(len(upload.Data)),
	}

	var result *MatchResult
	err = s.store.Transaction(ctx, func(tx store.MetadataStore) error {
		if err := tx.CreateTabularFile(ctx, file); err != nil {
			return fmt.Errorf("failed to store tabular file: %w", err)
		}
		result, err = s.applyMatch(ctx, tx, owner, file, table, hash)
		return err
	})
	if err != nil {
		tabularProcessedTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	s.previews.Add(hash, table)
	s.recordMatch(ctx, owner, file, result)

	return &ProcessResult{ID: file.ID, MatchResult: result}, nil
}

// ProcessTabular re-runs the matcher on a stored file. Unchanged content that
// was already processed is skipped unless force is set.
func (s *Service) ProcessTabular(ctx context.Context, owner string, id uint, force bool) (*ProcessResult, error) {
	file, err := s.store.GetTabularFile(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, owner, file, force, false)
}

// ReplaceTabularContent swaps the stored bytes of a file and re-processes it.
func (s *Service) ReplaceTabularContent(ctx context.Context, owner string, id uint, upload TabularUpload) (*ProcessResult, error) {
	file, err := s.store.GetTabularFile(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	table, format, err := parseUpload(upload.Filename, upload.Data)
	if err != nil {
		return nil, err
	}
	if !table.HasColumn(SampleColumn) {
		return nil, &MissingColumnsError{Columns: []string{SampleColumn}}
	}

	edited := file.Format != format.String() || (upload.Name != "" && upload.Name != file.Name)
	file.Format = format.String()
	file.Content = models.CompressedBytes(upload.Data)
	file.Size = int64(len(upload.Data))
	if upload.Name != "" {
		file.Name = upload.Name
	}
	return s.process(ctx, owner, file, false, edited)
}

// process runs the matcher unless the content is unchanged. edited marks
// field changes that must be saved even when matching is skipped.
func (s *Service) process(ctx context.Context, owner string, file *models.TabularFile, force, edited bool) (*ProcessResult, error) {
	hash := fingerprint.Sum(file.Content)
	changed := fingerprint.Changed(file.DataHash, file.Content)

	if !changed && file.Processed && !force {
		if edited {
			if err := s.store.UpdateTabularFile(ctx, file); err != nil {
				return nil, fmt.Errorf("failed to update tabular file %d: %w", file.ID, err)
			}
		}
		tabularProcessedTotal.WithLabelValues("unchanged").Inc()
		s.log.Debug("Tabular file %d unchanged, skipping matcher", file.ID)
		return &ProcessResult{
			ID:          file.ID,
			MatchResult: &MatchResult{Columns: decodeColumns(file.Columns)},
			Unchanged:   true,
		}, nil
	}

	table, err := s.parseStored(file, hash)
	if err != nil {
		return nil, err
	}

	var result *MatchResult
	err = s.store.Transaction(ctx, func(tx store.MetadataStore) error {
		result, err = s.applyMatch(ctx, tx, owner, file, table, hash)
		return err
	})
	if err != nil {
		tabularProcessedTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	s.recordMatch(ctx, owner, file, result)
	return &ProcessResult{ID: file.ID, MatchResult: result, IsUpdate: changed}, nil
}

func (s *Service) applyMatch(ctx context.Context, tx store.MetadataStore, owner string, file *models.TabularFile, table *tabular.Table, hash string) (*MatchResult, error) {
	result, err := MatchTable(ctx, tx, owner, file.ID, table)
	if err != nil {
		return nil, err
	}

	file.DataHash = hash
	file.Columns = encodeColumns(table.Columns)
	file.Processed = true
	if err := tx.UpdateTabularFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to update tabular file %d: %w", file.ID, err)
	}
	return result, nil
}

func (s *Service) recordMatch(ctx context.Context, owner string, file *models.TabularFile, result *MatchResult) {
	tabularProcessedTotal.WithLabelValues("processed").Inc()
	attributesWrittenTotal.WithLabelValues("created").Add(float64(result.Created))
	attributesWrittenTotal.WithLabelValues("overwritten").Add(float64(result.Overwritten))

	s.log.Info("Processed tabular file %d: %d rows, %d images matched, %d attributes created",
		file.ID, result.RowsProcessed, result.MatchedImages, result.Created)

	s.publish(ctx, events.Event{
		Type:       events.TypeTabularProcessed,
		Owner:      owner,
		ResourceID: file.ID,
		Payload:    result,
	})
}

func (s *Service) parseStored(file *models.TabularFile, hash string) (*tabular.Table, error) {
	if table, ok := s.previews.Get(hash); ok {
		return table, nil
	}

	format, err := tabular.ParseFormat(file.Format)
	if err != nil {
		return nil, err
	}
	table, err := tabular.Parse(file.Content, format)
	if err != nil {
		return nil, err
	}
	s.previews.Add(hash, table)
	return table, nil
}

// PreviewTabular returns the first rows of a stored file without modifying it.
func (s *Service) PreviewTabular(ctx context.Context, owner string, id uint) (*Preview, error) {
	file, err := s.store.GetTabularFile(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	table, err := s.parseStored(file, fingerprint.Sum(file.Content))
	if err != nil {
		return nil, err
	}

	head := table.Head(s.opts.PreviewRows)
	return &Preview{
		ID:        file.ID,
		Name:      file.Name,
		Columns:   head.Columns,
		Types:     tabular.InferColumnTypes(table),
		Rows:      head.Rows,
		TotalRows: table.Len(),
	}, nil
}

func (s *Service) ListTabular(ctx context.Context, owner string) ([]models.TabularFile, error) {
	return s.store.ListTabularFiles(ctx, owner)
}

func (s *Service) GetTabular(ctx context.Context, owner string, id uint) (*models.TabularFile, error) {
	return s.store.GetTabularFile(ctx, owner, id)
}

// DeleteTabular removes a file; images it annotated are kept and unlinked.
func (s *Service) DeleteTabular(ctx context.Context, owner string, id uint) error {
	if err := s.store.DeleteTabularFile(ctx, owner, id); err != nil {
		return err
	}
	s.log.Info("Deleted tabular file %d", id)
	return nil
}

// parseUpload decides the format from the filename extension. Files without
// an extension are sniffed, CSV first.
func parseUpload(filename string, data []byte) (*tabular.Table, tabular.Format, error) {
	if filepath.Ext(filename) == "" {
		return tabular.ParseAuto(data)
	}
	format, err := tabular.FormatFromFilename(filename)
	if err != nil {
		return nil, tabular.FormatUnknown, err
	}
	table, err := tabular.Parse(data, format)
	return table, format, err
}

func encodeColumns(columns []string) datatypes.JSON {
	data, err := json.Marshal(columns)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// decodeColumns reads the cached column list; unreadable values decode as empty.
func decodeColumns(raw datatypes.JSON) []string {
	columns := make([]string, 0)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &columns)
	}
	return columns
}

// DecodeColumns exposes the cached column list of a stored file.
func DecodeColumns(file *models.TabularFile) []string {
	return decodeColumns(file.Columns)
}
