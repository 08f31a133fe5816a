package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
)

// Record is the validated view of one quarterback season. Stats absent
// for a season (qbr_total before 2006) stay nil.
type Record struct {
	Season        int      `json:"season" validate:"gte=1920,lte=2100"`
	NameFirst     string   `json:"name_first" validate:"required"`
	NameLast      string   `json:"name_last" validate:"required"`
	Team          string   `json:"team"`
	Wins          *float64 `json:"wins" validate:"omitempty,gte=0"`
	Losses        *float64 `json:"losses" validate:"omitempty,gte=0"`
	PassingYards  *float64 `json:"passing_yards"`
	PassingTDs    *float64 `json:"passing_tds" validate:"omitempty,gte=0"`
	Interceptions *float64 `json:"interceptions" validate:"omitempty,gte=0"`
	RushingYards  *float64 `json:"rushing_yards"`
	RushingTDs    *float64 `json:"rushing_tds" validate:"omitempty,gte=0"`
	PasserRating  *float64 `json:"passer_rating"`
	QBRTotal      *float64 `json:"qbr_total"`
	EPATotal      *float64 `json:"epa_total"`
	QBPlays       *float64 `json:"qb_plays" validate:"omitempty,gte=0"`
	EPAPerPlay    *float64 `json:"epa_per_play"`
	Sacks         *float64 `json:"sacks" validate:"omitempty,gte=0"`
	MVP           int      `json:"mvp" validate:"oneof=0 1"`
}

// Dataset is the read-only set of historical seasons, loaded once. Rows are
// served exactly as they appear in the file; records holds the parsed view
// used for validation and filtering.
type Dataset struct {
	rows    []json.RawMessage
	records []Record
	path    string
}

// Load reads the JSON array at path. Rows failing validation are skipped.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", path, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	d := &Dataset{
		rows:    make([]json.RawMessage, 0, len(rows)),
		records: make([]Record, 0, len(rows)),
		path:    path,
	}
	for i, row := range rows {
		var r Record
		if err := json.Unmarshal(row, &r); err != nil {
			slog.Warn("Skipping malformed dataset row", "path", path, "index", i, "error", err)
			continue
		}
		if err := validate.Struct(r); err != nil {
			slog.Warn("Skipping invalid dataset record", "path", path, "index", i, "error", err)
			continue
		}
		d.rows = append(d.rows, row)
		d.records = append(d.records, r)
	}

	slog.Info("Dataset loaded", "path", path, "records", len(d.rows), "skipped", len(rows)-len(d.rows))

	return d, nil
}

// All returns every row in file order.
func (d *Dataset) All() []json.RawMessage {
	out := make([]json.RawMessage, len(d.rows))
	copy(out, d.rows)
	return out
}

// MVPs returns the rows of seasons that won the award.
func (d *Dataset) MVPs() []json.RawMessage {
	out := make([]json.RawMessage, 0)
	for i, r := range d.records {
		if r.MVP == 1 {
			out = append(out, d.rows[i])
		}
	}
	return out
}

// Len returns the number of loaded records.
func (d *Dataset) Len() int {
	return len(d.rows)
}
