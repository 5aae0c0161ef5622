package saures

import (
	"fmt"
	"strconv"

	"meterassist-backend/lib/scrapers/gorod"
	"meterassist-backend/lib/serialutil"
)

// SourceName marks records whose current reading came from this vendor.
const SourceName = "saures"

// vendor type code for multi-tariff electricity meters
const electricityTypeNumber = 8

// MatchBySerial pairs portal records with vendor meters by normalized
// serial number. First match wins; duplicate serials on the vendor side
// are not detected, which is an accepted limitation.
func MatchBySerial(local []gorod.MeterRecord, external []Meter) map[string]Meter {
	matches := map[string]Meter{}
	for _, record := range local {
		for _, meter := range external {
			if serialutil.Equal(record.SerialNumber, meter.SerialNumber) {
				matches[record.Id] = meter
				break
			}
		}
	}
	return matches
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Enrich overwrites the current reading of every record that has a
// vendor counterpart. Multi-tariff electricity meters report one value
// per tariff band: the merged value is their sum and each band is kept
// in the reading metadata under its tariff label. Everything else takes
// the last reported value. Records without a counterpart are left
// untouched; that is not an error.
func Enrich(records []gorod.MeterRecord, external []Meter) []gorod.MeterRecord {
	for i := range records {
		record := &records[i]

		var meter Meter
		found := false
		for _, m := range external {
			if serialutil.Equal(record.SerialNumber, m.SerialNumber) {
				meter = m
				found = true
				break
			}
		}
		if !found {
			continue
		}

		if record.CurrentReading.Metadata == nil {
			record.CurrentReading.Metadata = map[string]string{}
		}
		if record.Metadata == nil {
			record.Metadata = map[string]string{}
		}

		values := meter.Values
		if meter.Type.Number == electricityTypeNumber && len(values) >= 3 {
			total := 0.0
			for band, v := range values {
				total += v
				record.CurrentReading.Metadata[fmt.Sprintf("T%d", band+1)] = formatValue(v)
			}
			record.CurrentReading.Value = formatValue(total)
		} else if len(values) > 0 {
			record.CurrentReading.Value = formatValue(values[len(values)-1])
		}

		record.CurrentReading.Source = SourceName
		record.Metadata["saures_meter_id"] = strconv.FormatInt(meter.MeterId, 10)
		record.Metadata["saures_type"] = meter.Type.Name
		record.Metadata["saures_unit"] = meter.Unit
		record.Metadata["saures_state"] = meter.State.Name
	}
	return records
}
