package gorod

import "time"

// Reading is one historical reading as displayed by the portal.
type Reading struct {
	Date  string `json:"date,omitempty"`
	Value string `json:"value,omitempty"`
}

// CurrentReading is the value currently staged in the portal's input
// field for the next billing cycle. Source distinguishes values the
// portal rendered itself from values filled in by an external telemetry
// vendor.
type CurrentReading struct {
	Value    string            `json:"value,omitempty"`
	Date     string            `json:"date,omitempty"`
	Source   string            `json:"source,omitempty"`
	Editable bool              `json:"editable"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MeterRecord is one physical utility meter as the portal rendered it on
// a single page fetch. Records are rebuilt from scratch on every parse;
// the only identity that survives across fetches is Id.
type MeterRecord struct {
	// server-assigned, used as the form key on resubmission
	Id               string            `json:"id"`
	Service          string            `json:"service"`
	SerialNumber     string            `json:"serial_number"`
	SerialNormalized string            `json:"serial_normalized"`
	LastReading      Reading           `json:"last_reading"`
	CurrentReading   CurrentReading    `json:"current_reading"`
	NextVerification string            `json:"next_verification,omitempty"`
	AskueLink        string            `json:"askue_link,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Snapshot bundles the records and the CSRF token that came out of one
// page fetch. The token is only valid together with this exact record
// set: submission must never mix a token from one fetch with records
// from another.
type Snapshot struct {
	Records   []MeterRecord
	Token     string
	FetchedAt time.Time
}

// Record returns the record with the given meter id, if present.
func (s Snapshot) Record(id string) (MeterRecord, bool) {
	for _, r := range s.Records {
		if r.Id == id {
			return r, true
		}
	}
	return MeterRecord{}, false
}

// SubmissionResult classifies the outcome of a readings submission.
// Validated is only present when a post-submission verification pass ran;
// it is a presence check, not a guarantee that the stored value equals
// what was requested.
type SubmissionResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Validated map[string]bool `json:"validated,omitempty"`
}
