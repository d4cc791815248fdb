package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/rs/zerolog"

	"ddb-capacity-reporter/types"
)

const (
	namespace = "AWS/DynamoDB"

	ConsumedReadCapacityUnits = "ConsumedReadCapacityUnits"

	periodInterval = 300 // 5 minutes
)

type Metrics struct {
	config types.Config
	logger *zerolog.Logger
	client cloudwatchiface.CloudWatchAPI
}

// SeriesQuery describes one GetMetricStatistics request for a table or index.
type SeriesQuery struct {
	Subject    types.Subject
	MetricName string
	Start      time.Time
	End        time.Time
	Period     time.Duration
	Statistic  string
	Unit       string
}

func New(config types.Config, logger *zerolog.Logger, awsSession *session.Session) *Metrics {
	client := cloudwatch.New(awsSession, &aws.Config{
		Region: aws.String(config.AwsRegion),
	})

	return NewWithClient(config, logger, client)
}

func NewWithClient(config types.Config, logger *zerolog.Logger, client cloudwatchiface.CloudWatchAPI) *Metrics {
	return &Metrics{
		config: config,
		client: client,
		logger: logger,
	}
}

// ConsumedReadCapacity returns the 5-minute sums of consumed read capacity for
// the subject over [start, end).
func (m *Metrics) ConsumedReadCapacity(ctx context.Context, subject types.Subject, start, end time.Time) (types.MetricSeries, error) {
	period := m.config.Period
	if period <= 0 {
		period = periodInterval * time.Second
	}

	return m.GetSeries(ctx, SeriesQuery{
		Subject:    subject,
		MetricName: ConsumedReadCapacityUnits,
		Start:      start,
		End:        end,
		Period:     period,
		Statistic:  cloudwatch.StatisticSum,
		Unit:       cloudwatch.StandardUnitCount,
	})
}

func (m *Metrics) GetSeries(ctx context.Context, query SeriesQuery) (types.MetricSeries, error) {
	// Period must be a positive multiple of 60
	period := query.Period.Truncate(time.Minute)
	if period < time.Minute {
		period = time.Minute
	}

	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespace),
		MetricName: aws.String(query.MetricName),
		StartTime:  aws.Time(query.Start),
		EndTime:    aws.Time(query.End),
		Period:     aws.Int64(int64(period.Seconds())),
		Statistics: aws.StringSlice([]string{query.Statistic}),
		Dimensions: Dimensions(query.Subject),
	}
	if query.Unit != "" {
		input.Unit = aws.String(query.Unit)
	}

	resp, err := m.client.GetMetricStatisticsWithContext(ctx, input)
	if err != nil {
		return nil, &types.TransportError{Op: "failed to get " + query.MetricName + " statistics for " + query.Subject.String(), Err: err}
	}

	series := make(types.MetricSeries, 0, len(resp.Datapoints))
	for _, dp := range resp.Datapoints {
		if dp == nil || dp.Timestamp == nil {
			continue
		}
		series = append(series, types.MetricSample{
			Timestamp: aws.TimeValue(dp.Timestamp),
			Sum:       statisticValue(dp, query.Statistic),
		})
	}
	series.Sort()

	m.logger.Debug().
		Str("Subject", query.Subject.String()).
		Str("MetricName", query.MetricName).
		Int("Datapoints", len(series)).
		Msg("Retrieved metric statistics")

	return series, nil
}

// Dimensions identifies a table, and additionally the global secondary index
// for index subjects.
func Dimensions(subject types.Subject) []*cloudwatch.Dimension {
	dimensions := []*cloudwatch.Dimension{
		{
			Name:  aws.String("TableName"),
			Value: aws.String(string(subject.Table)),
		},
	}

	if subject.IsIndex() {
		dimensions = append(dimensions, &cloudwatch.Dimension{
			Name:  aws.String("GlobalSecondaryIndexName"),
			Value: aws.String(string(subject.Index)),
		})
	}
	return dimensions
}

func statisticValue(dp *cloudwatch.Datapoint, statistic string) float64 {
	switch statistic {
	case cloudwatch.StatisticAverage:
		return aws.Float64Value(dp.Average)
	case cloudwatch.StatisticMaximum:
		return aws.Float64Value(dp.Maximum)
	case cloudwatch.StatisticMinimum:
		return aws.Float64Value(dp.Minimum)
	case cloudwatch.StatisticSampleCount:
		return aws.Float64Value(dp.SampleCount)
	}
	return aws.Float64Value(dp.Sum)
}
