package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Subject is a table, or one secondary index of a table when Index is set.
type Subject struct {
	Table TableIdentifier    `json:"table"`
	Index SecondaryIndexName `json:"index,omitempty"`
}

func (s Subject) IsIndex() bool {
	return s.Index != ""
}

func (s Subject) String() string {
	return s.describe("table")
}

// Title is String for the start of a sentence.
func (s Subject) Title() string {
	return s.describe("Table")
}

func (s Subject) describe(table string) string {
	if s.IsIndex() {
		return fmt.Sprintf("%s %s and index %s", table, s.Table, s.Index)
	}
	return fmt.Sprintf("%s %s", table, s.Table)
}

type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type UtilizationReport struct {
	Subject     Subject             `json:"subject"`
	Provisioned ProvisionedCapacity `json:"provisioned"`
	PeakPercent float64             `json:"peak_percent"`
	Samples     int                 `json:"samples"`
	Window      Window              `json:"window"`
}

// NoConsumption reports whether the window held no datapoints at all, as
// opposed to datapoints that peaked at zero.
func (r UtilizationReport) NoConsumption() bool {
	return r.Samples == 0
}

type TableFailure struct {
	Table TableIdentifier `json:"table"`
	Err   error           `json:"-"`
}

func (f TableFailure) MarshalJSON() ([]byte, error) {
	var msg string
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Table TableIdentifier `json:"table"`
		Error string          `json:"error"`
	}{f.Table, msg})
}

type Broadcast struct {
	MessageType string      `json:"message_type"`
	Data        interface{} `json:"data"`
}
