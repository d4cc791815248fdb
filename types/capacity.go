package types

import (
	"sort"
	"time"
)

type TableIdentifier string

type SecondaryIndexName string

type CapacityKind string

const (
	CapacityRead  CapacityKind = "read"
	CapacityWrite CapacityKind = "write"
)

func ParseCapacityKind(kind string) (CapacityKind, error) {
	switch CapacityKind(kind) {
	case CapacityRead:
		return CapacityRead, nil
	case CapacityWrite:
		return CapacityWrite, nil
	}
	return "", &UnsupportedCapacityKindError{Kind: kind}
}

type ProvisionedCapacity struct {
	ReadUnits  int64 `json:"read_units"`
	WriteUnits int64 `json:"write_units"`
}

func (p ProvisionedCapacity) Units(kind CapacityKind) (int64, error) {
	switch kind {
	case CapacityRead:
		return p.ReadUnits, nil
	case CapacityWrite:
		return p.WriteUnits, nil
	}
	return 0, &UnsupportedCapacityKindError{Kind: string(kind)}
}

type IndexDescriptor struct {
	Name        SecondaryIndexName   `json:"name"`
	Provisioned *ProvisionedCapacity `json:"provisioned,omitempty"`
}

// TableDescriptor is the typed subset of a DescribeTable response the reporter needs.
// Provisioned is nil when the service returned no throughput descriptor.
type TableDescriptor struct {
	Name        TableIdentifier      `json:"name"`
	BillingMode string               `json:"billing_mode,omitempty"`
	Provisioned *ProvisionedCapacity `json:"provisioned,omitempty"`
	Indexes     []IndexDescriptor    `json:"indexes"`
}

func (t TableDescriptor) Index(name SecondaryIndexName) (IndexDescriptor, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDescriptor{}, false
}

type MetricSample struct {
	Timestamp time.Time `json:"timestamp"`
	Sum       float64   `json:"sum"`
}

type MetricSeries []MetricSample

// Sort orders the series by timestamp, oldest first.
func (s MetricSeries) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}
