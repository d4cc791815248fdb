package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ddb-capacity-reporter/types"
	"ddb-capacity-reporter/utilization"
)

func New(config types.Config, logger *zerolog.Logger, inventory TableInventory, metrics MetricsReader, sink Sink) *Driver {
	return &Driver{
		config:    config.WithDefaults(),
		logger:    logger,
		inventory: inventory,
		metrics:   metrics,
		sink:      sink,
		now:       time.Now,
	}
}

// WithClock replaces the time source used to anchor the lookback window.
func (d *Driver) WithClock(now func() time.Time) *Driver {
	d.now = now
	return d
}

// Run reports every table in the inventory, or only config.TableName when set.
// Unless ContinueOnError is set the first failure aborts the run; reports
// already emitted to the sink stay emitted.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	end := d.now().In(time.UTC)
	summary := Summary{
		Region: d.config.AwsRegion,
		Window: types.Window{Start: end.Add(-d.config.Lookback), End: end},
	}

	tables, err := d.inventory.ListTables(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list tables in %s: %w", d.config.AwsRegion, err)
	}
	d.sink.Inventory(d.config.AwsRegion, tables)

	matched := false
	for _, table := range tables {
		if d.config.TableName != "" && types.TableIdentifier(d.config.TableName) != table {
			continue
		}
		matched = true
		summary.Tables++

		if err := d.reportTable(ctx, table, summary.Window, &summary); err != nil {
			if !d.config.ContinueOnError {
				return summary, err
			}

			failure := types.TableFailure{Table: table, Err: err}
			summary.Failures = append(summary.Failures, failure)
			d.sink.Failure(failure)
			d.logger.Error().Err(err).Str("TableName", string(table)).Msg("Failed to report table, continuing")
		}
	}

	if d.config.TableName != "" && !matched {
		d.logger.Warn().Str("TableName", d.config.TableName).Str("Region", d.config.AwsRegion).Msg("Requested table is not in the inventory")
	}

	if len(summary.Failures) > 0 {
		return summary, fmt.Errorf("%d of %d tables failed", len(summary.Failures), summary.Tables)
	}
	return summary, nil
}

func (d *Driver) reportTable(ctx context.Context, table types.TableIdentifier, window types.Window, summary *Summary) error {
	tableReport, err := d.reportSubject(ctx, types.Subject{Table: table}, window)
	if err != nil {
		return err
	}
	summary.Reports = append(summary.Reports, tableReport)

	indexes, err := d.inventory.IndexNames(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to enumerate indexes of table %s: %w", table, err)
	}

	if len(indexes) == 0 {
		d.sink.NoIndexes(table)
	}

	for _, index := range indexes {
		indexReport, err := d.reportSubject(ctx, types.Subject{Table: table, Index: index}, window)
		if err != nil {
			return err
		}
		summary.Reports = append(summary.Reports, indexReport)
	}
	return nil
}

func (d *Driver) reportSubject(ctx context.Context, subject types.Subject, window types.Window) (types.UtilizationReport, error) {
	capacity, err := d.provisioned(ctx, subject)
	if err != nil {
		return types.UtilizationReport{}, err
	}
	d.sink.Provisioned(subject, capacity)

	series, err := d.metrics.ConsumedReadCapacity(ctx, subject, window.Start, window.End)
	if err != nil {
		return types.UtilizationReport{}, fmt.Errorf("failed to get consumed read capacity for %s: %w", subject, err)
	}

	report, err := utilization.Calculate(subject, capacity, series, window)
	if err != nil {
		return types.UtilizationReport{}, err
	}

	d.logger.Info().
		Str("Subject", subject.String()).
		Int64("ReadCapacityUnits", capacity.ReadUnits).
		Int("Datapoints", report.Samples).
		Float64("PeakPercent", report.PeakPercent).
		Msg("Utilization computed")

	d.sink.Report(report)
	return report, nil
}

func (d *Driver) provisioned(ctx context.Context, subject types.Subject) (types.ProvisionedCapacity, error) {
	var capacity types.ProvisionedCapacity

	read, err := d.inventory.ProvisionedCapacity(ctx, subject.Table, subject.Index, string(types.CapacityRead))
	if err != nil {
		return capacity, fmt.Errorf("failed to get provisioned read capacity for %s: %w", subject, err)
	}
	write, err := d.inventory.ProvisionedCapacity(ctx, subject.Table, subject.Index, string(types.CapacityWrite))
	if err != nil {
		return capacity, fmt.Errorf("failed to get provisioned write capacity for %s: %w", subject, err)
	}

	capacity.ReadUnits = read
	capacity.WriteUnits = write
	return capacity, nil
}
