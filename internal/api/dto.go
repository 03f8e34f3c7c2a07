package api

import (
	"time"

	"github.com/mwantia/agrilink/internal/ingest"
	"github.com/mwantia/agrilink/pkg/db/models"
	"github.com/mwantia/agrilink/pkg/db/store"
)

type tabularFileResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Size       int64     `json:"size"`
	DataHash   string    `json:"data_hash"`
	Columns    []string  `json:"columns"`
	Processed  bool      `json:"processed"`
	UploadedAt time.Time `json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newTabularFileResponse(file *models.TabularFile) tabularFileResponse {
	return tabularFileResponse{
		ID:         file.ID,
		Name:       file.Name,
		Format:     file.Format,
		Size:       file.Size,
		DataHash:   file.DataHash,
		Columns:    ingest.DecodeColumns(file),
		Processed:  file.Processed,
		UploadedAt: file.UploadedAt,
		UpdatedAt:  file.UpdatedAt,
	}
}

type attributeResponse struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func newAttributeResponses(attributes []models.ImageAttribute) []attributeResponse {
	out := make([]attributeResponse, 0, len(attributes))
	for _, a := range attributes {
		out = append(out, attributeResponse{Label: a.Label, Value: a.Value})
	}
	return out
}

type imageResponse struct {
	ID          uint                `json:"id"`
	SampleID    string              `json:"sample_id"`
	Description string              `json:"description"`
	Filename    string              `json:"filename"`
	ContentType string              `json:"content_type"`
	Size        int64               `json:"size"`
	TabularFile *uint               `json:"tabular_file"`
	UploadedAt  time.Time           `json:"uploaded_at"`
	Metadata    []attributeResponse `json:"metadata"`
}

func newImageResponse(image *models.ImageRecord) imageResponse {
	return imageResponse{
		ID:          image.ID,
		SampleID:    image.SampleID,
		Description: image.Description,
		Filename:    image.Filename,
		ContentType: image.ContentType,
		Size:        image.Size,
		TabularFile: image.TabularFileID,
		UploadedAt:  image.UploadedAt,
		Metadata:    newAttributeResponses(image.Attributes),
	}
}

func newImageResponses(images []models.ImageRecord) []imageResponse {
	out := make([]imageResponse, 0, len(images))
	for i := range images {
		out = append(out, newImageResponse(&images[i]))
	}
	return out
}

type dashboardResponse struct {
	TabularFiles    int64      `json:"tabular_files"`
	ProcessedFiles  int64      `json:"processed_files"`
	Images          int64      `json:"images"`
	LinkedImages    int64      `json:"linked_images"`
	Attributes      int64      `json:"attributes"`
	GeneticDatasets int64      `json:"genetic_datasets"`
	GeneticRecords  int64      `json:"genetic_records"`
	LastUpload      *time.Time `json:"last_upload"`
}

func newDashboardResponse(stats *store.Stats) dashboardResponse {
	return dashboardResponse{
		TabularFiles:    stats.TabularFiles,
		ProcessedFiles:  stats.ProcessedFiles,
		Images:          stats.Images,
		LinkedImages:    stats.LinkedImages,
		Attributes:      stats.Attributes,
		GeneticDatasets: stats.GeneticDatasets,
		GeneticRecords:  stats.GeneticRecords,
		LastUpload:      stats.LastUpload,
	}
}
