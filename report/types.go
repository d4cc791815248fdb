package report

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ddb-capacity-reporter/types"
)

type TableInventory interface {
	ListTables(ctx context.Context) ([]types.TableIdentifier, error)
	IndexNames(ctx context.Context, table types.TableIdentifier) ([]types.SecondaryIndexName, error)
	ProvisionedCapacity(ctx context.Context, table types.TableIdentifier, index types.SecondaryIndexName, kind string) (int64, error)
}

type MetricsReader interface {
	ConsumedReadCapacity(ctx context.Context, subject types.Subject, start, end time.Time) (types.MetricSeries, error)
}

// Sink receives progress and results as the driver computes them.
type Sink interface {
	Inventory(region string, tables []types.TableIdentifier)
	Provisioned(subject types.Subject, capacity types.ProvisionedCapacity)
	Report(report types.UtilizationReport)
	NoIndexes(table types.TableIdentifier)
	Failure(failure types.TableFailure)
}

type Driver struct {
	config    types.Config
	logger    *zerolog.Logger
	inventory TableInventory
	metrics   MetricsReader
	sink      Sink
	now       func() time.Time
}

type Summary struct {
	Region   string                    `json:"region"`
	Window   types.Window              `json:"window"`
	Tables   int                       `json:"tables"`
	Reports  []types.UtilizationReport `json:"reports"`
	Failures []types.TableFailure      `json:"failures,omitempty"`
}
