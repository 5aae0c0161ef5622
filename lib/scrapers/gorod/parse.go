package gorod

import (
	"strings"

	"meterassist-backend/lib/htmlutil"
	"meterassist-backend/lib/serialutil"

	"github.com/PuerkitoBio/goquery"
)

// form field names the portal expects back on POST
const (
	tokenField      = "__RequestVerificationToken"
	tokenFieldAlias = "RequestVerificationToken"
	meterIdField    = "MeterReadingId"
	inputValueField = "InputValCnt"
)

// ColumnMapping says which table column carries which field. The portal
// has no semantic markup, so extraction is by cell position; keeping the
// indices declarative means a portal layout change is a config edit, not
// a parser rewrite.
type ColumnMapping struct {
	Service          int
	SerialNumber     int
	NextVerification int
	LastReadingDate  int
	LastReadingValue int
	// set to -1 when the portal doesn't render the column
	AskueLink int
	// rows with fewer cells than this are skipped entirely
	MinCells int
}

// DefaultColumns is the column order the portal renders today.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		Service:          0,
		SerialNumber:     1,
		NextVerification: 2,
		LastReadingDate:  3,
		LastReadingValue: 4,
		AskueLink:        -1,
		MinCells:         7,
	}
}

func cellText(cells *goquery.Selection, idx int) string {
	if idx < 0 || idx >= cells.Length() {
		return ""
	}
	return htmlutil.CleanText(htmlutil.GetText(cells.Get(idx)))
}

// ExtractToken pulls the anti-forgery token out of a rendered page,
// preferring the primary field name over its alias. Returns "" when
// neither is present; whether that is fatal is the caller's call.
func ExtractToken(doc *goquery.Document) string {
	for _, name := range []string{tokenField, tokenFieldAlias} {
		value := doc.Find("input[name=" + name + "]").AttrOr("value", "")
		if value != "" {
			return value
		}
	}
	return ""
}

// ParseMetersPage turns the meter-listing page into structured records.
// Each hidden MeterReadingId input anchors one table row; rows without
// the anchor or with too few cells are skipped without error. A page
// with zero anchors is a valid "no meters" result, not a parse failure.
func ParseMetersPage(doc *goquery.Document, cols ColumnMapping) []MeterRecord {
	var records []MeterRecord

	doc.Find("input[name=" + meterIdField + "]").Each(func(_ int, anchor *goquery.Selection) {
		id := strings.TrimSpace(anchor.AttrOr("value", ""))
		if id == "" {
			return
		}

		row := anchor.Closest("tr")
		if row.Length() == 0 {
			return
		}

		cells := row.Find("td")
		if cells.Length() < cols.MinCells {
			return
		}

		input := row.Find("input[name=" + inputValueField + "]")
		currentValue := strings.TrimSpace(input.AttrOr("value", ""))

		serial := cellText(cells, cols.SerialNumber)
		records = append(records, MeterRecord{
			Id:               id,
			Service:          cellText(cells, cols.Service),
			SerialNumber:     serial,
			SerialNormalized: serialutil.Normalize(serial),
			NextVerification: cellText(cells, cols.NextVerification),
			AskueLink:        cellText(cells, cols.AskueLink),
			LastReading: Reading{
				Date:  cellText(cells, cols.LastReadingDate),
				Value: cellText(cells, cols.LastReadingValue),
			},
			CurrentReading: CurrentReading{
				Value:    currentValue,
				Editable: input.Length() > 0,
				Metadata: map[string]string{},
			},
			Metadata: map[string]string{},
		})
	})

	return records
}
