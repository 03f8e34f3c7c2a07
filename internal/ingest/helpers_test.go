package ingest

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/mwantia/agrilink/internal/events"
	"github.com/mwantia/agrilink/pkg/blob/memory"
	"github.com/mwantia/agrilink/pkg/db/models"
	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/log"
	"github.com/mwantia/agrilink/pkg/secure"
	"github.com/mwantia/agrilink/pkg/tabular"
	"github.com/xuri/excelize/v2"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake")

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// plainCipher stands in for the encryptor where ciphertext is irrelevant.
type plainCipher struct{}

func (plainCipher) EncryptBytes(data []byte) ([]byte, error) { return data, nil }
func (plainCipher) DecryptBytes(token []byte) ([]byte, error) { return token, nil }

func (plainCipher) EncryptJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	return string(data), err
}

func (plainCipher) DecryptJSON(value string) any {
	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return value
	}
	return v
}

func (plainCipher) DecodeJSON(value string, dst any) error {
	return json.Unmarshal([]byte(value), dst)
}

func newTestStore(t *testing.T) store.MetadataStore {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "ingest.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

type testEnv struct {
	service   *Service
	store     store.MetadataStore
	blobs     *memory.Store
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	encryptor, err := secure.NewEncryptor("test-secret")
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	env := &testEnv{
		store:     newTestStore(t),
		blobs:     memory.New(),
		publisher: &recordingPublisher{},
	}
	logger := log.NewWriterLogger("ingest", "error", io.Discard)
	env.service = NewService(env.store, env.blobs, encryptor, env.publisher, logger, opts)
	return env
}

func parseCSV(t *testing.T, content string) *tabular.Table {
	t.Helper()
	table, err := tabular.Parse([]byte(content), tabular.FormatCSV)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return table
}

func createImage(t *testing.T, s store.MetadataStore, owner, sample string) *models.ImageRecord {
	t.Helper()
	image := &models.ImageRecord{SampleID: sample, Owner: owner, BlobKey: "images/" + owner + "-" + sample}
	if err := s.CreateImage(context.Background(), image); err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	return image
}

func attributes(t *testing.T, s store.MetadataStore, imageID uint) map[string]string {
	t.Helper()
	list, err := s.ListAttributes(context.Background(), imageID)
	if err != nil {
		t.Fatalf("ListAttributes: %v", err)
	}
	out := make(map[string]string, len(list))
	for _, a := range list {
		out[a.Label] = a.Value
	}
	return out
}

// buildWorkbook writes rows to the first sheet and applies number format
// styles to the named cells.
func buildWorkbook(t *testing.T, rows [][]any, styles map[string]*excelize.Style) []byte {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}
	for cell, style := range styles {
		id, err := file.NewStyle(style)
		if err != nil {
			t.Fatalf("new style: %v", err)
		}
		if err := file.SetCellStyle(sheet, cell, cell, id); err != nil {
			t.Fatalf("style cell %s: %v", cell, err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
