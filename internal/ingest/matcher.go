package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/tabular"
)

// SampleColumn joins table rows to images.
const SampleColumn = "sample_id"

// MatchResult summarizes one matcher run.
type MatchResult struct {
	Created       int      `json:"created"`
	Updated       int      `json:"updated"`
	Overwritten   int      `json:"overwritten"`
	RowsProcessed int      `json:"rows_processed"`
	RowsSkipped   int      `json:"rows_skipped"`
	MatchedImages int      `json:"matched_images"`
	Columns       []string `json:"columns"`
}

// SampleKey returns the join key of a cell, using its text as written so
// that "5" and 5 compare equal and "007" keeps its zeros.
func SampleKey(v tabular.Value) (string, bool) {
	if v.IsMissing() {
		return "", false
	}
	key := strings.TrimSpace(v.String())
	return key, key != ""
}

// NormalizeValue renders a cell for storage as an attribute value.
func NormalizeValue(v tabular.Value) string {
	return v.Normalized()
}

// MatchTable links the owner's images to fileID by sample key and upserts
// every other non-missing column of the row as an image attribute.
func MatchTable(ctx context.Context, tx store.MetadataStore, owner string, fileID uint, table *tabular.Table) (*MatchResult, error) {
	if !table.HasColumn(SampleColumn) {
		return nil, &MissingColumnsError{Columns: []string{SampleColumn}}
	}

	result := &MatchResult{Columns: append([]string(nil), table.Columns...)}
	matched := make(map[uint]struct{})

	for _, row := range table.Rows {
		key, ok := SampleKey(row.Get(SampleColumn))
		if !ok {
			result.RowsSkipped++
			continue
		}
		result.RowsProcessed++

		images, err := tx.FindImagesBySample(ctx, owner, key)
		if err != nil {
			return nil, fmt.Errorf("failed to find images for sample '%s': %w", key, err)
		}

		for _, image := range images {
			matched[image.ID] = struct{}{}

			if image.TabularFileID == nil || *image.TabularFileID != fileID {
				if err := tx.SetImageTabularFile(ctx, image.ID, &fileID); err != nil {
					return nil, fmt.Errorf("failed to link image %d: %w", image.ID, err)
				}
				result.Updated++
			}

			for _, column := range table.Columns {
				if column == SampleColumn {
					continue
				}
				value := row.Get(column)
				if value.IsMissing() {
					continue
				}

				outcome, err := tx.UpsertAttribute(ctx, image.ID, column, NormalizeValue(value))
				if err != nil {
					return nil, fmt.Errorf("failed to store '%s' on image %d: %w", column, image.ID, err)
				}
				switch outcome {
				case store.UpsertCreated:
					result.Created++
				case store.UpsertUpdated:
					result.Overwritten++
				}
			}
		}
	}

	result.MatchedImages = len(matched)
	return result, nil
}
