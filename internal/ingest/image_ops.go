package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mwantia/agrilink/pkg/db/models"
	"github.com/mwantia/agrilink/pkg/db/store"
)

// MetadataItem is one label/value pair supplied by a user.
type MetadataItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// UploadImage stores a single image under sampleID.
func (s *Service) UploadImage(ctx context.Context, owner, sampleID, description string, upload ImageUpload) (*models.ImageRecord, error) {
	sampleID = strings.TrimSpace(sampleID)
	if sampleID == "" {
		return nil, invalid("sample_id is required")
	}

	image, err := s.storeImage(ctx, s.store, owner, sampleID, description, nil, upload)
	if err != nil {
		return nil, err
	}
	s.log.Info("Stored image %d for sample '%s'", image.ID, sampleID)
	return image, nil
}

// UploadImages stores a batch of images linked to a tabular file. Sample IDs
// are generated as <prefix>_<n> starting at 1.
func (s *Service) UploadImages(ctx context.Context, owner string, fileID uint, prefix string, uploads []ImageUpload) ([]models.ImageRecord, error) {
	if len(uploads) == 0 {
		return nil, invalid("no images provided")
	}
	if _, err := s.store.GetTabularFile(ctx, owner, fileID); err != nil {
		return nil, err
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultSamplePrefix
	}

	images := make([]models.ImageRecord, 0, len(uploads))
	err := s.store.Transaction(ctx, func(tx store.MetadataStore) error {
		for i, upload := range uploads {
			n := i + 1
			image, err := s.storeImage(ctx, tx, owner, fmt.Sprintf("%s_%d", prefix, n), fmt.Sprintf("Uploaded image %d", n), &fileID, upload)
			if err != nil {
				return err
			}
			images = append(images, *image)
		}
		return nil
	})
	if err != nil {
		for _, image := range images {
			s.deleteBlob(ctx, image.BlobKey)
		}
		return nil, err
	}

	s.log.Info("Stored %d images for tabular file %d", len(images), fileID)
	return images, nil
}

func (s *Service) ListImages(ctx context.Context, owner string, filter store.ImageFilter) ([]models.ImageRecord, error) {
	return s.store.ListImages(ctx, owner, filter)
}

func (s *Service) GetImage(ctx context.Context, owner string, id uint) (*models.ImageRecord, error) {
	return s.store.GetImage(ctx, owner, id)
}

// OpenImage returns the image record and a reader over its bytes. The caller
// closes the reader.
func (s *Service) OpenImage(ctx context.Context, owner string, id uint) (*models.ImageRecord, io.ReadCloser, error) {
	image, err := s.store.GetImage(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}
	_, body, err := s.blobs.Get(ctx, image.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image %d: %w", id, err)
	}
	return image, body, nil
}

// DeleteImage removes the record, its attributes and its bytes.
func (s *Service) DeleteImage(ctx context.Context, owner string, id uint) error {
	image, err := s.store.GetImage(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteImage(ctx, owner, id); err != nil {
		return err
	}
	s.deleteBlob(ctx, image.BlobKey)
	return nil
}

// AddImageMetadata upserts user-supplied attributes. Items with an empty
// label or value are ignored.
func (s *Service) AddImageMetadata(ctx context.Context, owner string, id uint, items []MetadataItem) ([]models.ImageAttribute, error) {
	if _, err := s.store.GetImage(ctx, owner, id); err != nil {
		return nil, err
	}

	written := 0
	err := s.store.Transaction(ctx, func(tx store.MetadataStore) error {
		for _, item := range items {
			label := strings.TrimSpace(item.Label)
			value := strings.TrimSpace(item.Value)
			if label == "" || value == "" {
				continue
			}
			result, err := tx.UpsertAttribute(ctx, id, label, value)
			if err != nil {
				return fmt.Errorf("failed to write attribute '%s': %w", label, err)
			}
			switch result {
			case store.UpsertCreated:
				attributesWrittenTotal.WithLabelValues("created").Inc()
			case store.UpsertUpdated:
				attributesWrittenTotal.WithLabelValues("overwritten").Inc()
			}
			written++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if written == 0 {
		return nil, invalid("no metadata items with both label and value")
	}

	return s.store.ListAttributes(ctx, id)
}

func (s *Service) MetadataLabels(ctx context.Context, owner string) ([]string, error) {
	return s.store.MetadataLabels(ctx, owner)
}

func (s *Service) MetadataValues(ctx context.Context, owner, label string) ([]string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, invalid("label is required")
	}
	return s.store.MetadataValues(ctx, owner, label)
}
