package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mwantia/agrilink/pkg/tabular"
)

func TestSampleKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"A1", "A1", true},
		{"  A1 ", "A1", true},
		{"007", "007", true},
		{"5", "5", true},
		{"", "", false},
		{"NaN", "", false},
		{"none", "", false},
	}

	for _, tt := range tests {
		got, ok := SampleKey(tabular.ParseValue(tt.raw))
		if got != tt.want || ok != tt.ok {
			t.Errorf("SampleKey(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatchTableRequiresSampleColumn(t *testing.T) {
	s := newTestStore(t)
	table := parseCSV(t, "plot,height\nP1,3\n")

	_, err := MatchTable(context.Background(), s, "alice", 1, table)
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingColumnsError", err)
	}
	if !reflect.DeepEqual(missing.Columns, []string{"sample_id"}) {
		t.Errorf("missing = %v", missing.Columns)
	}
}

func TestMatchTableLinksAndNormalizes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a1 := createImage(t, s, "alice", "A1")
	a1b := createImage(t, s, "alice", "A1")
	b2 := createImage(t, s, "alice", "B2")
	foreign := createImage(t, s, "bob", "A1")

	table := parseCSV(t, "sample_id,height,variety,notes\nA1,5.0,Sugar Baby,nan\nB2,12.50,,ok\n,1,x,y\nZ9,1,x,y\n")

	result, err := MatchTable(ctx, s, "alice", 7, table)
	if err != nil {
		t.Fatalf("MatchTable: %v", err)
	}

	if result.RowsProcessed != 3 || result.RowsSkipped != 1 {
		t.Errorf("rows processed/skipped = %d/%d, want 3/1", result.RowsProcessed, result.RowsSkipped)
	}
	if result.MatchedImages != 3 || result.Updated != 3 {
		t.Errorf("matched/updated = %d/%d, want 3/3", result.MatchedImages, result.Updated)
	}
	// A1: height, variety on two images; B2: height, notes
	if result.Created != 6 || result.Overwritten != 0 {
		t.Errorf("created/overwritten = %d/%d, want 6/0", result.Created, result.Overwritten)
	}

	want := map[string]string{"height": "5", "variety": "Sugar Baby"}
	for _, id := range []uint{a1.ID, a1b.ID} {
		if got := attributes(t, s, id); !reflect.DeepEqual(got, want) {
			t.Errorf("image %d attributes = %v, want %v", id, got, want)
		}
	}
	if got := attributes(t, s, b2.ID); !reflect.DeepEqual(got, map[string]string{"height": "12.5", "notes": "ok"}) {
		t.Errorf("B2 attributes = %v", got)
	}
	if got := attributes(t, s, foreign.ID); len(got) != 0 {
		t.Errorf("foreign image received attributes: %v", got)
	}

	image, err := s.GetImage(ctx, "alice", a1.ID)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if image.TabularFileID == nil || *image.TabularFileID != 7 {
		t.Errorf("image link = %v, want 7", image.TabularFileID)
	}
}

func TestMatchTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	image := createImage(t, s, "alice", "A1")
	table := parseCSV(t, "sample_id,height\nA1,5\n")

	if _, err := MatchTable(ctx, s, "alice", 1, table); err != nil {
		t.Fatalf("first MatchTable: %v", err)
	}
	second, err := MatchTable(ctx, s, "alice", 1, table)
	if err != nil {
		t.Fatalf("second MatchTable: %v", err)
	}
	if second.Created != 0 || second.Updated != 0 || second.Overwritten != 0 {
		t.Errorf("second run wrote: %+v", second)
	}

	changed := parseCSV(t, "sample_id,height\nA1,6\n")
	third, err := MatchTable(ctx, s, "alice", 1, changed)
	if err != nil {
		t.Fatalf("third MatchTable: %v", err)
	}
	if third.Overwritten != 1 || third.Created != 0 {
		t.Errorf("third run = %+v, want one overwrite", third)
	}
	if got := attributes(t, s, image.ID)["height"]; got != "6" {
		t.Errorf("height = %q, want 6", got)
	}
}
