package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"ddb-capacity-reporter/types"
)

// TextSink prints one human readable line per event.
type TextSink struct {
	out io.Writer
}

func NewTextSink(out io.Writer) *TextSink {
	return &TextSink{out: out}
}

func (s *TextSink) Inventory(region string, tables []types.TableIdentifier) {
	fmt.Fprintf(s.out, "Table names for region %s are %v\n", region, tables)
}

func (s *TextSink) Provisioned(subject types.Subject, capacity types.ProvisionedCapacity) {
	fmt.Fprintf(s.out, "Provisioned read capacity units for %s is %s\n", subject, humanize.Comma(capacity.ReadUnits))
	fmt.Fprintf(s.out, "Provisioned write capacity units for %s is %s\n", subject, humanize.Comma(capacity.WriteUnits))
}

func (s *TextSink) Report(report types.UtilizationReport) {
	if report.NoConsumption() {
		fmt.Fprintf(s.out, "%s has max consumed read capacity of 0%% (no consumption recorded in window)\n", report.Subject.Title())
		return
	}
	fmt.Fprintf(s.out, "%s has max consumed read capacity of %s%%\n", report.Subject.Title(), FormatPercent(report.PeakPercent))
}

func (s *TextSink) NoIndexes(table types.TableIdentifier) {
	fmt.Fprintf(s.out, "No global secondary indexes found for table %s\n", table)
}

func (s *TextSink) Failure(failure types.TableFailure) {
	fmt.Fprintf(s.out, "Failed to report table %s: %v\n", failure.Table, failure.Err)
}

// PrintSummary writes the collected reports as a table.
func (s *TextSink) PrintSummary(summary Summary) {
	fmt.Fprintf(s.out, "\n%d reports for %d tables in %s, %s to %s:\n",
		len(summary.Reports), summary.Tables, summary.Region,
		summary.Window.Start.Format("2006-01-02 15:04"), summary.Window.End.Format("2006-01-02 15:04"))

	t := tabby.NewCustom(tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0))
	t.AddHeader("Table", "Index", "Read Units", "Write Units", "Peak Read %", "Datapoints")
	for _, r := range summary.Reports {
		peak := FormatPercent(r.PeakPercent)
		if r.NoConsumption() {
			peak = "no data"
		}
		t.AddLine(r.Subject.Table, r.Subject.Index, humanize.Comma(r.Provisioned.ReadUnits),
			humanize.Comma(r.Provisioned.WriteUnits), peak, r.Samples)
	}
	for _, f := range summary.Failures {
		t.AddLine(f.Table, "", "-", "-", "failed", "-")
	}
	t.Print()
}

// FormatPercent renders a percentage with two decimals, trailing zeros kept.
func FormatPercent(percent float64) string {
	return decimal.NewFromFloat(percent).StringFixed(2)
}

// MultiSink fans every event out to all sinks in order.
type MultiSink []Sink

func (m MultiSink) Inventory(region string, tables []types.TableIdentifier) {
	for _, s := range m {
		s.Inventory(region, tables)
	}
}

func (m MultiSink) Provisioned(subject types.Subject, capacity types.ProvisionedCapacity) {
	for _, s := range m {
		s.Provisioned(subject, capacity)
	}
}

func (m MultiSink) Report(report types.UtilizationReport) {
	for _, s := range m {
		s.Report(report)
	}
}

func (m MultiSink) NoIndexes(table types.TableIdentifier) {
	for _, s := range m {
		s.NoIndexes(table)
	}
}

func (m MultiSink) Failure(failure types.TableFailure) {
	for _, s := range m {
		s.Failure(failure)
	}
}
