package saures

import (
	"testing"

	"meterassist-backend/lib/scrapers/gorod"

	"github.com/stretchr/testify/require"
)

func electricityMeter() Meter {
	return Meter{
		MeterId:      101,
		SerialNumber: "123456",
		Type:         MeterType{Number: 8, Name: "Электричество"},
		Values:       []float64{10.1, 20.2, 30.3},
		Unit:         "кВт·ч",
		State:        MeterState{Name: "Активен"},
	}
}

func waterMeter() Meter {
	return Meter{
		MeterId:      102,
		SerialNumber: "777",
		Type:         MeterType{Number: 1, Name: "Холодная вода"},
		Values:       []float64{42.0},
		Unit:         "м³",
		State:        MeterState{Name: "Активен"},
	}
}

func TestMatchBySerial(t *testing.T) {
	local := []gorod.MeterRecord{
		{Id: "id1", SerialNumber: "00123456"},
		{Id: "id2", SerialNumber: "777"},
		{Id: "id3", SerialNumber: "555"},
	}
	external := []Meter{electricityMeter(), waterMeter()}

	matches := MatchBySerial(local, external)
	require.Len(t, matches, 2)
	require.Equal(t, int64(101), matches["id1"].MeterId)
	require.Equal(t, int64(102), matches["id2"].MeterId)
	_, matched := matches["id3"]
	require.False(t, matched)
}

func TestMatchBySerialFirstMatchWins(t *testing.T) {
	duplicate := electricityMeter()
	duplicate.MeterId = 999

	local := []gorod.MeterRecord{{Id: "id1", SerialNumber: "123456"}}
	matches := MatchBySerial(local, []Meter{electricityMeter(), duplicate})
	require.Equal(t, int64(101), matches["id1"].MeterId)
}

func TestEnrichMultiTariff(t *testing.T) {
	records := []gorod.MeterRecord{{
		Id:             "id1",
		SerialNumber:   "00123456",
		CurrentReading: gorod.CurrentReading{Value: "100"},
	}}

	enriched := Enrich(records, []Meter{electricityMeter()})

	reading := enriched[0].CurrentReading
	require.Equal(t, "60.60", reading.Value)
	require.Equal(t, SourceName, reading.Source)
	require.Equal(t, map[string]string{
		"T1": "10.10",
		"T2": "20.20",
		"T3": "30.30",
	}, reading.Metadata)

	require.Equal(t, "101", enriched[0].Metadata["saures_meter_id"])
	require.Equal(t, "Электричество", enriched[0].Metadata["saures_type"])
	require.Equal(t, "кВт·ч", enriched[0].Metadata["saures_unit"])
	require.Equal(t, "Активен", enriched[0].Metadata["saures_state"])
}

func TestEnrichSingleValue(t *testing.T) {
	records := []gorod.MeterRecord{{
		Id:             "id2",
		SerialNumber:   "0777",
		CurrentReading: gorod.CurrentReading{Value: "40"},
	}}

	enriched := Enrich(records, []Meter{waterMeter()})
	require.Equal(t, "42.00", enriched[0].CurrentReading.Value)
	require.Equal(t, SourceName, enriched[0].CurrentReading.Source)
	require.Empty(t, enriched[0].CurrentReading.Metadata)
}

func TestEnrichNoCounterpart(t *testing.T) {
	records := []gorod.MeterRecord{{
		Id:             "id3",
		SerialNumber:   "555",
		CurrentReading: gorod.CurrentReading{Value: "13"},
	}}

	enriched := Enrich(records, []Meter{electricityMeter(), waterMeter()})
	require.Equal(t, "13", enriched[0].CurrentReading.Value)
	require.Empty(t, enriched[0].CurrentReading.Source)
}
