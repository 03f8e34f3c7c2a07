package memory

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
	store := New()

	meta := map[string]string{"owner": "alice"}
	if _, err := store.Put(ctx, "k", strings.NewReader("payload"), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	meta["owner"] = "mallory"

	info, body, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "payload" || info.Metadata["owner"] != "alice" {
		t.Fatalf("Get = %+v %q", info, data)
	}

	if _, err := store.Put(ctx, "k", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("duplicate Put err = %v", err)
	}
	if deleted, _ := store.Delete(ctx, "k"); !deleted {
		t.Fatal("Delete reported missing blob")
	}
	if _, err := store.Head(ctx, "k"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Head after delete err = %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len = %d", store.Len())
	}
}
