package ingest

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mwantia/agrilink/pkg/db/models"
	"github.com/mwantia/agrilink/pkg/tabular"
	"gorm.io/datatypes"
)

const (
	ColumnNo     = "No."
	ColumnF5Code = "F5 Code"
)

// Recognized optional headers of a genetic spreadsheet.
const (
	ColumnLocation              = "Location"
	ColumnF5FruitNumber         = "F5 Fruit Number"
	ColumnF6FullName            = "F6 Full Name"
	ColumnSixthCode             = "6th Code"
	ColumnFruitNumber           = "Fruit Number"
	ColumnPollinationDate       = "Pollination Date"
	ColumnHarvestDate           = "Harvest Date"
	ColumnPedicelLength         = "Pedicel Length (cm)"
	ColumnPedicelWidth          = "Pedicel Width (cm)"
	ColumnInsertionPeduncleSize = "Insertion of Peduncle Size (cm)"
	ColumnFruitWeight           = "Fruit Weight (Kg)"
	ColumnFruitLength           = "Fruit Length (cm)"
	ColumnFruitWidth            = "Fruit Width (cm)"
	ColumnRindThickness         = "Rind Thickness (mm)"
	ColumnRindHardness          = "Rind Hardness"
	ColumnApexSize              = "Apex Size (cm)"
	ColumnRindStripe            = "Rind Stripe"
	ColumnFleshHardness         = "Flesh Hardness"
	ColumnFleshColor            = "Flesh Color"
	ColumnBrixContent           = "Brix Content (%)"
	ColumnSeedsQuantity         = "Seeds Quantity"
	ColumnRemainedSeeds         = "Remained Seeds"
)

// GeneticSignature identifies a breeding line.
type GeneticSignature struct {
	RecordNumber  int    `json:"record_number"`
	F5Code        string `json:"f5_code"`
	F5FruitNumber string `json:"f5_fruit_number,omitempty"`
	F6FullName    string `json:"f6_full_name,omitempty"`
	SixthCode     string `json:"sixth_code,omitempty"`
	Location      string `json:"location,omitempty"`
}

// BreedingData bundles the phenotype measurements of a record.
type BreedingData struct {
	PollinationDate       *string  `json:"pollination_date"`
	HarvestDate           *string  `json:"harvest_date"`
	FruitNumber           string   `json:"fruit_number,omitempty"`
	PedicelLength         *float64 `json:"pedicel_length"`
	PedicelWidth          *float64 `json:"pedicel_width"`
	InsertionPeduncleSize *float64 `json:"insertion_peduncle_size"`
	FruitWeight           *float64 `json:"fruit_weight"`
	FruitLength           *float64 `json:"fruit_length"`
	FruitWidth            *float64 `json:"fruit_width"`
	RindThickness         *float64 `json:"rind_thickness"`
	RindHardness          *float64 `json:"rind_hardness"`
	ApexSize              *float64 `json:"apex_size"`
	RindStripe            *string  `json:"rind_stripe"`
	FleshHardness         *string  `json:"flesh_hardness"`
	FleshColor            *string  `json:"flesh_color"`
	BrixContent           *float64 `json:"brix_content"`
	SeedsQuantity         *int     `json:"seeds_quantity"`
	RemainedSeeds         *int     `json:"remained_seeds"`
}

// RowOutcome records what happened to one spreadsheet row.
type RowOutcome struct {
	Line    int    `json:"line"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// BuildResult holds the records built from a table and per-row outcomes.
type BuildResult struct {
	Records  []models.GeneticRecord
	Outcomes []RowOutcome
	Built    int
	Skipped  int
}

// ValidateGeneticColumns fails with *MissingColumnsError when a required column is absent.
func ValidateGeneticColumns(table *tabular.Table) error {
	if missing := table.MissingColumns(ColumnNo, ColumnF5Code); len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// BuildGeneticRecords converts rows into records for datasetID. Rows with an
// unusable record number or code, and repeated (number, code) pairs, are
// skipped. Encryption failures abort the build.
func BuildGeneticRecords(table *tabular.Table, datasetID uint, cipher Cipher) (*BuildResult, error) {
	if err := ValidateGeneticColumns(table); err != nil {
		return nil, err
	}

	result := &BuildResult{
		Records:  make([]models.GeneticRecord, 0, table.Len()),
		Outcomes: make([]RowOutcome, 0, table.Len()),
	}
	seen := make(map[string]struct{}, table.Len())

	for i, row := range table.Rows {
		// header is line 1
		line := i + 2

		record, breeding, err := buildRecord(row)
		if err != nil {
			result.skip(line, err.Error())
			continue
		}

		identity := strconv.Itoa(record.RecordNumber) + "\x00" + record.F5Code
		if _, dup := seen[identity]; dup {
			result.skip(line, fmt.Sprintf("duplicate record %d / %s", record.RecordNumber, record.F5Code))
			continue
		}
		seen[identity] = struct{}{}

		record.DatasetID = datasetID
		record.GeneticSignature, err = cipher.EncryptJSON(signatureOf(record))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt signature on line %d: %w", line, err)
		}
		record.BreedingData, err = cipher.EncryptJSON(breeding)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt breeding data on line %d: %w", line, err)
		}

		result.Records = append(result.Records, record)
		result.Outcomes = append(result.Outcomes, RowOutcome{Line: line})
		result.Built++
	}

	return result, nil
}

func (r *BuildResult) skip(line int, reason string) {
	r.Outcomes = append(r.Outcomes, RowOutcome{Line: line, Skipped: true, Reason: reason})
	r.Skipped++
}

// SkippedOutcomes returns only the rows that were not built.
func (r *BuildResult) SkippedOutcomes() []RowOutcome {
	skipped := make([]RowOutcome, 0, r.Skipped)
	for _, o := range r.Outcomes {
		if o.Skipped {
			skipped = append(skipped, o)
		}
	}
	return skipped
}

func buildRecord(row tabular.Row) (models.GeneticRecord, BreedingData, error) {
	number, err := recordNumber(row.Get(ColumnNo))
	if err != nil {
		return models.GeneticRecord{}, BreedingData{}, err
	}
	code, ok := SampleKey(row.Get(ColumnF5Code))
	if !ok {
		return models.GeneticRecord{}, BreedingData{}, fmt.Errorf("missing %s", ColumnF5Code)
	}

	record := models.GeneticRecord{
		RecordNumber:  number,
		F5Code:        code,
		Location:      textField(row, ColumnLocation),
		F5FruitNumber: textField(row, ColumnF5FruitNumber),
		F6FullName:    textField(row, ColumnF6FullName),
		SixthCode:     textField(row, ColumnSixthCode),
		FruitNumber:   textField(row, ColumnFruitNumber),

		PedicelLength:         floatField(row, ColumnPedicelLength),
		PedicelWidth:          floatField(row, ColumnPedicelWidth),
		InsertionPeduncleSize: floatField(row, ColumnInsertionPeduncleSize),
		FruitWeight:           floatField(row, ColumnFruitWeight),
		FruitLength:           floatField(row, ColumnFruitLength),
		FruitWidth:            floatField(row, ColumnFruitWidth),
		RindThickness:         floatField(row, ColumnRindThickness),
		RindHardness:          floatField(row, ColumnRindHardness),
		ApexSize:              floatField(row, ColumnApexSize),
		RindStripe:            optionalText(row, ColumnRindStripe),
		FleshHardness:         optionalText(row, ColumnFleshHardness),
		FleshColor:            optionalText(row, ColumnFleshColor),
		BrixContent:           floatField(row, ColumnBrixContent),
		SeedsQuantity:         intField(row, ColumnSeedsQuantity),
		RemainedSeeds:         intField(row, ColumnRemainedSeeds),
	}

	pollination, pollinationText := dateField(row, ColumnPollinationDate)
	harvest, harvestText := dateField(row, ColumnHarvestDate)
	record.PollinationDate = pollination
	record.HarvestDate = harvest

	breeding := BreedingData{
		PollinationDate:       pollinationText,
		HarvestDate:           harvestText,
		FruitNumber:           record.FruitNumber,
		PedicelLength:         record.PedicelLength,
		PedicelWidth:          record.PedicelWidth,
		InsertionPeduncleSize: record.InsertionPeduncleSize,
		FruitWeight:           record.FruitWeight,
		FruitLength:           record.FruitLength,
		FruitWidth:            record.FruitWidth,
		RindThickness:         record.RindThickness,
		RindHardness:          record.RindHardness,
		ApexSize:              record.ApexSize,
		RindStripe:            record.RindStripe,
		FleshHardness:         record.FleshHardness,
		FleshColor:            record.FleshColor,
		BrixContent:           record.BrixContent,
		SeedsQuantity:         record.SeedsQuantity,
		RemainedSeeds:         record.RemainedSeeds,
	}
	return record, breeding, nil
}

func signatureOf(r models.GeneticRecord) GeneticSignature {
	return GeneticSignature{
		RecordNumber:  r.RecordNumber,
		F5Code:        r.F5Code,
		F5FruitNumber: r.F5FruitNumber,
		F6FullName:    r.F6FullName,
		SixthCode:     r.SixthCode,
		Location:      r.Location,
	}
}

func recordNumber(v tabular.Value) (int, error) {
	if v.IsMissing() {
		return 0, fmt.Errorf("missing %s", ColumnNo)
	}
	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("%s '%s' is not a number", ColumnNo, v.String())
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s '%s' is not an integer", ColumnNo, v.String())
	}
	return int(f), nil
}

func textField(row tabular.Row, column string) string {
	v := row.Get(column)
	if v.IsMissing() {
		return ""
	}
	return v.Normalized()
}

func optionalText(row tabular.Row, column string) *string {
	v := row.Get(column)
	if v.IsMissing() {
		return nil
	}
	s := v.Normalized()
	return &s
}

func floatField(row tabular.Row, column string) *float64 {
	if f, ok := row.Get(column).Float(); ok {
		return &f
	}
	return nil
}

func intField(row tabular.Row, column string) *int {
	f := floatField(row, column)
	if f == nil || math.Abs(*f) > math.MaxInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

func dateField(row tabular.Row, column string) (*datatypes.Date, *string) {
	t, ok := tabular.DateValue(row.Get(column))
	if !ok {
		return nil, nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	date := datatypes.Date(day)
	text := day.Format("2006-01-02")
	return &date, &text
}
