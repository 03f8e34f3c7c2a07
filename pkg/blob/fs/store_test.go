package fs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mwantia/agrilink/pkg/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	info, err := store.Put(ctx, "images/a.jpg", strings.NewReader("jpegdata"), core.PutOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"filename": "a.jpg"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 8 || info.ETag == "" {
		t.Fatalf("info = %+v", info)
	}

	if _, err := store.Put(ctx, "images/a.jpg", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("second Put err = %v, want ErrExists", err)
	}

	got, body, err := store.Get(ctx, "images/a.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if string(data) != "jpegdata" || got.ContentType != "image/jpeg" || got.Metadata["filename"] != "a.jpg" {
		t.Fatalf("Get = %+v %q", got, data)
	}

	deleted, err := store.Delete(ctx, "images/a.jpg")
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "images/a.jpg")
	if err != nil || deleted {
		t.Fatalf("Delete missing = %v, %v", deleted, err)
	}
	if _, _, err := store.Get(ctx, "images/a.jpg"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"", "../escape", "/abs/path", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Errorf("Put(%q) accepted", key)
		}
	}
}
