package ingest

import (
	"errors"
	"testing"
)

const geneticCSV = "No.,F5 Code,Location,Pollination Date,Fruit Weight (Kg),Seeds Quantity,Flesh Color\n" +
	"1,ABC,Field A,2024-06-01,2.5,120,Red\n" +
	"2,DEF,Field B,,3,,\n" +
	"1,ABC,Field A,2024-06-01,2.5,120,Red\n" +
	"x,GHI,Field C,,,,\n" +
	"3,,Field D,,,,\n" +
	"4.5,JKL,Field E,,,,\n"

func TestValidateGeneticColumns(t *testing.T) {
	err := ValidateGeneticColumns(parseCSV(t, "Location,F5 Code\nA,B\n"))
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingColumnsError", err)
	}
	if len(missing.Columns) != 1 || missing.Columns[0] != ColumnNo {
		t.Errorf("missing = %v", missing.Columns)
	}

	if err := ValidateGeneticColumns(parseCSV(t, "No.,F5 Code\n1,A\n")); err != nil {
		t.Errorf("complete header rejected: %v", err)
	}
}

func TestBuildGeneticRecords(t *testing.T) {
	result, err := BuildGeneticRecords(parseCSV(t, geneticCSV), 42, plainCipher{})
	if err != nil {
		t.Fatalf("BuildGeneticRecords: %v", err)
	}

	if result.Built != 2 || result.Skipped != 4 {
		t.Fatalf("built/skipped = %d/%d, want 2/4", result.Built, result.Skipped)
	}

	skipped := result.SkippedOutcomes()
	lines := make([]int, 0, len(skipped))
	for _, o := range skipped {
		lines = append(lines, o.Line)
		if o.Reason == "" {
			t.Errorf("line %d skipped without reason", o.Line)
		}
	}
	if want := []int{4, 5, 6, 7}; len(lines) != len(want) || lines[0] != 4 || lines[3] != 7 {
		t.Errorf("skipped lines = %v, want %v", lines, want)
	}

	first := result.Records[0]
	if first.DatasetID != 42 || first.RecordNumber != 1 || first.F5Code != "ABC" {
		t.Errorf("first record = %+v", first)
	}
	if first.FruitWeight == nil || *first.FruitWeight != 2.5 {
		t.Errorf("fruit weight = %v", first.FruitWeight)
	}
	if first.SeedsQuantity == nil || *first.SeedsQuantity != 120 {
		t.Errorf("seeds = %v", first.SeedsQuantity)
	}
	if first.FleshColor == nil || *first.FleshColor != "Red" {
		t.Errorf("flesh color = %v", first.FleshColor)
	}
	if first.PollinationDate == nil {
		t.Error("pollination date not parsed")
	}

	second := result.Records[1]
	if second.PollinationDate != nil || second.SeedsQuantity != nil || second.FleshColor != nil {
		t.Errorf("missing cells were populated: %+v", second)
	}

	var breeding BreedingData
	if err := (plainCipher{}).DecodeJSON(first.BreedingData, &breeding); err != nil {
		t.Fatalf("decode breeding data: %v", err)
	}
	if breeding.PollinationDate == nil || *breeding.PollinationDate != "2024-06-01" {
		t.Errorf("breeding pollination date = %v", breeding.PollinationDate)
	}

	var signature GeneticSignature
	if err := (plainCipher{}).DecodeJSON(first.GeneticSignature, &signature); err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if signature.RecordNumber != 1 || signature.F5Code != "ABC" || signature.Location != "Field A" {
		t.Errorf("signature = %+v", signature)
	}
}

func TestRecordImageKey(t *testing.T) {
	if got := RecordImageKey(12, "F5-A"); got != "12_F5-A" {
		t.Errorf("RecordImageKey = %q", got)
	}
}
