// Package export dumps scraped meter records to a JSON document for
// downstream consumers.
package export

import (
	"encoding/json"
	"os"
	"time"

	"meterassist-backend/lib/scrapers/gorod"
)

type Metadata struct {
	ExportDate   time.Time `json:"export_date"`
	Source       string    `json:"source"`
	TotalRecords int       `json:"total_records"`
}

type Document struct {
	Metadata      Metadata            `json:"metadata"`
	MeterReadings []gorod.MeterRecord `json:"meter_readings"`
}

// NewDocument wraps the records with export metadata. `source` is the
// portal base url the records were scraped from.
func NewDocument(records []gorod.MeterRecord, source string) Document {
	return Document{
		Metadata: Metadata{
			ExportDate:   time.Now(),
			Source:       source,
			TotalRecords: len(records),
		},
		MeterReadings: records,
	}
}

func (d Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func (d Document) WriteFile(path string) error {
	out, err := d.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
