package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/agrilink/internal/events"
	"github.com/mwantia/agrilink/pkg/blob/core"
	"github.com/mwantia/agrilink/pkg/db/models"
	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/log"
)

const (
	DefaultPreviewRows     = 5
	DefaultBatchSize       = 500
	DefaultSamplePrefix    = "IMG"
	defaultPreviewCacheTTL = 10 * time.Minute

	// blob keys are random; a taken key is retried with a new one
	maxKeyAttempts = 3
)

type Options struct {
	PreviewRows      int
	EncryptUploads   bool
	BatchSize        int
	PreviewCacheSize int
	PreviewCacheTTL  time.Duration
}

// Service implements upload, matching and retrieval for one metadata store.
type Service struct {
	store    store.MetadataStore
	blobs    core.Store
	cipher   Cipher
	events   events.Publisher
	log      log.LoggerService
	previews *PreviewCache
	opts     Options
}

func NewService(st store.MetadataStore, blobs core.Store, cipher Cipher, publisher events.Publisher, logger log.LoggerService, opts Options) *Service {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.PreviewCacheTTL <= 0 {
		opts.PreviewCacheTTL = defaultPreviewCacheTTL
	}

	return &Service{
		store:    st,
		blobs:    blobs,
		cipher:   cipher,
		events:   publisher,
		log:      logger,
		previews: NewPreviewCache(opts.PreviewCacheSize, opts.PreviewCacheTTL),
		opts:     opts,
	}
}

// ImageUpload is one uploaded image file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Dashboard summarizes the owner's stored data.
func (s *Service) Dashboard(ctx context.Context, owner string) (*store.Stats, error) {
	stats, err := s.store.Stats(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return stats, nil
}

// Health reports whether the metadata store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish %s event for resource %d: %v", event.Type, event.ResourceID, err)
	}
}

// storeImage writes image bytes to the blob store and records them through tx.
func (s *Service) storeImage(ctx context.Context, tx store.MetadataStore, owner, sampleID, description string, fileID *uint, upload ImageUpload) (*models.ImageRecord, error) {
	name := filepath.Base(upload.Filename)
	if len(upload.Data) == 0 {
		return nil, invalid("image '%s' is empty", name)
	}

	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(upload.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("'%s' is not an image", name)
	}

	var key string
	var err error
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key = "images/" + uuid.NewString() + strings.ToLower(filepath.Ext(name))
		_, err = s.blobs.Put(ctx, key, bytes.NewReader(upload.Data), core.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"owner": owner, "filename": name},
		})
		if !errors.Is(err, core.ErrExists) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store image '%s': %w", name, err)
	}

	image := &models.ImageRecord{
		SampleID:      sampleID,
		Owner:         owner,
		Description:   description,
		BlobKey:       key,
		ContentType:   contentType,
		Filename:      name,
		Size:          int64(len(upload.Data)),
		TabularFileID: fileID,
	}
	if err := tx.CreateImage(ctx, image); err != nil {
		s.deleteBlob(ctx, key)
		return nil, fmt.Errorf("failed to record image '%s': %w", name, err)
	}
	return image, nil
}

func (s *Service) deleteBlob(ctx context.Context, key string) {
	if _, err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, core.ErrNotFound) {
		s.log.Warn("Failed to delete blob '%s': %v", key, err)
	}
}
