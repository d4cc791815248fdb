package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCapacityKind(t *testing.T) {
	kind, err := ParseCapacityKind("read")
	require.NoError(t, err)
	assert.Equal(t, CapacityRead, kind)

	kind, err = ParseCapacityKind("write")
	require.NoError(t, err)
	assert.Equal(t, CapacityWrite, kind)

	for _, bad := range []string{"delete", "", "readwrite", "READ", "Write", "WRITE"} {
		_, err := ParseCapacityKind(bad)
		var unsupported *UnsupportedCapacityKindError
		require.True(t, errors.As(err, &unsupported), bad)
		assert.Equal(t, bad, unsupported.Kind)
	}
}

func TestProvisionedCapacityUnits(t *testing.T) {
	capacity := ProvisionedCapacity{ReadUnits: 100, WriteUnits: 7}

	units, err := capacity.Units(CapacityRead)
	require.NoError(t, err)
	assert.Equal(t, int64(100), units)

	units, err = capacity.Units(CapacityWrite)
	require.NoError(t, err)
	assert.Equal(t, int64(7), units)

	_, err = capacity.Units("delete")
	var unsupported *UnsupportedCapacityKindError
	assert.True(t, errors.As(err, &unsupported))
}

func TestMetricSeriesSort(t *testing.T) {
	base := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	series := MetricSeries{
		{Timestamp: base.Add(10 * time.Minute), Sum: 3},
		{Timestamp: base, Sum: 1},
		{Timestamp: base.Add(5 * time.Minute), Sum: 2},
	}
	series.Sort()
	assert.Equal(t, []float64{1, 2, 3}, []float64{series[0].Sum, series[1].Sum, series[2].Sum})
}

func TestSubjectString(t *testing.T) {
	assert.Equal(t, "table Orders", Subject{Table: "Orders"}.String())
	assert.Equal(t, "table Orders and index byCustomer", Subject{Table: "Orders", Index: "byCustomer"}.String())
	assert.Equal(t, "Table Orders", Subject{Table: "Orders"}.Title())
	assert.Equal(t, "Table Orders and index byCustomer", Subject{Table: "Orders", Index: "byCustomer"}.Title())
	assert.False(t, Subject{Table: "Orders"}.IsIndex())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "table Orders not found", (&TableNotFoundError{Table: "Orders"}).Error())
	assert.Equal(t, "table Orders not found: no provisioned throughput descriptor",
		(&TableNotFoundError{Table: "Orders", Reason: "no provisioned throughput descriptor"}).Error())
	assert.Equal(t, "index byRegion not found on table Orders", (&IndexNotFoundError{Table: "Orders", Index: "byRegion"}).Error())
	assert.Equal(t, `unsupported capacity kind "delete"`, (&UnsupportedCapacityKindError{Kind: "delete"}).Error())
	assert.Equal(t, "invalid provisioned capacity 0", (&InvalidCapacityError{}).Error())
	assert.Equal(t, "invalid provisioned capacity -1 for table T", (&InvalidCapacityError{Subject: Subject{Table: "T"}, Units: -1}).Error())

	cause := errors.New("dial tcp: timeout")
	transport := &TransportError{Op: "failed to list DynamoDB tables", Err: cause}
	assert.True(t, errors.Is(transport, cause))
	assert.Equal(t, "failed to list DynamoDB tables: dial tcp: timeout", transport.Error())
}

func TestTableFailureJSON(t *testing.T) {
	out, err := json.Marshal(TableFailure{Table: "Orders", Err: &TableNotFoundError{Table: "Orders"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"table":"Orders","error":"table Orders not found"}`, string(out))
}

func TestConfigWithDefaults(t *testing.T) {
	conf := Config{}.WithDefaults()
	assert.Equal(t, 120*time.Hour, conf.Lookback)
	assert.Equal(t, 5*time.Minute, conf.Period)

	conf = Config{Lookback: time.Hour, Period: time.Minute}.WithDefaults()
	assert.Equal(t, time.Hour, conf.Lookback)
	assert.Equal(t, time.Minute, conf.Period)
}

func TestUtilizationReportNoConsumption(t *testing.T) {
	assert.True(t, UtilizationReport{}.NoConsumption())
	assert.False(t, UtilizationReport{Samples: 3}.NoConsumption())
}
