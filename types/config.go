package types

import "time"

type Config struct {
	AwsRegion       string        `json:"aws_region"`
	TableName       string        `json:"table_name"`
	Lookback        time.Duration `json:"lookback"`
	Period          time.Duration `json:"period"`
	ContinueOnError bool          `json:"continue_on_error"`
	LogLevel        string        `json:"log_level"`
	ServerPort      uint          `json:"server_port"`
}

const (
	DefaultLookback = 5 * 24 * time.Hour
	DefaultPeriod   = 5 * time.Minute
)

// WithDefaults fills in the lookback window and aggregation period when unset.
func (c Config) WithDefaults() Config {
	if c.Lookback <= 0 {
		c.Lookback = DefaultLookback
	}
	if c.Period <= 0 {
		c.Period = DefaultPeriod
	}
	return c
}
