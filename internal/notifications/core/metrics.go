package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchAlertMetrics publishes run telemetry to CloudWatch:
//   - AlertCheck: Dims {Outcome}, one per run
//   - ObservedWindSpeed: Dims {Provider}, km/h of the reading used
//   - SMSDispatchLatency / SMSDispatchAttempts: per dispatched alert
type CloudWatchAlertMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

var _ AlertMetrics = (*CloudWatchAlertMetrics)(nil)

// NewCloudWatchAlertMetrics creates a CloudWatchAlertMetrics for namespace.
func NewCloudWatchAlertMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchAlertMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchAlertMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordOutcome emits AlertCheck=1 with the Outcome dimension.
func (m *CloudWatchAlertMetrics) RecordOutcome(ctx context.Context, outcome Outcome) {
	m.put(ctx, "outcome", cwtypes.MetricDatum{
		MetricName: aws.String(MetricAlertCheck),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(DimOutcome), Value: aws.String(string(outcome))},
		},
	})
}

// RecordWindSample emits the observed speed with the Provider dimension.
func (m *CloudWatchAlertMetrics) RecordWindSample(ctx context.Context, provider string, speedKmh float64) {
	m.put(ctx, "wind sample", cwtypes.MetricDatum{
		MetricName: aws.String(MetricWindSpeed),
		Value:      aws.Float64(speedKmh),
		Unit:       cwtypes.StandardUnitNone,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(DimProvider), Value: aws.String(provider)},
		},
	})
}

// RecordDispatch emits the dispatch latency in milliseconds and the number
// of attempts it took, in one PutMetricData call.
func (m *CloudWatchAlertMetrics) RecordDispatch(ctx context.Context, attempts int, latency time.Duration) {
	m.put(ctx, "dispatch",
		cwtypes.MetricDatum{
			MetricName: aws.String(MetricDispatchLatency),
			Value:      aws.Float64(float64(latency.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(MetricDispatchAttempts),
			Value:      aws.Float64(float64(attempts)),
			Unit:       cwtypes.StandardUnitCount,
		},
	)
}

func (m *CloudWatchAlertMetrics) put(ctx context.Context, what string, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record metric",
			"metric", what,
			"error", err.Error(),
		)
	}
}

// NoopAlertMetrics discards everything. Used when ENABLE_METRICS is off.
type NoopAlertMetrics struct{}

var _ AlertMetrics = NoopAlertMetrics{}

func (NoopAlertMetrics) RecordOutcome(context.Context, Outcome)             {}
func (NoopAlertMetrics) RecordWindSample(context.Context, string, float64)  {}
func (NoopAlertMetrics) RecordDispatch(context.Context, int, time.Duration) {}
