package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"mirage-engine/application/ports"
)

// putMetricDataLimit is the CloudWatch cap on datums per PutMetricData call
const putMetricDataLimit = 20

// CloudWatchMetrics implements ports.MetricsPublisher on CloudWatch.
// Datums buffer in memory until Flush, so hot paths like the tick loop
// never block on the network.
type CloudWatchMetrics struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// NewCloudWatchMetrics creates a CloudWatch-backed metrics publisher
func NewCloudWatchMetrics(namespace string, client *cloudwatch.Client, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// Count adds to a named counter
func (m *CloudWatchMetrics) Count(ctx context.Context, name string, value float64, dimensions map[string]string) {
	m.record(name, value, types.StandardUnitCount, dimensions)
}

// Gauge records a point-in-time value
func (m *CloudWatchMetrics) Gauge(ctx context.Context, name string, value float64, dimensions map[string]string) {
	m.record(name, value, types.StandardUnitNone, dimensions)
}

// Timing records a duration in milliseconds
func (m *CloudWatchMetrics) Timing(ctx context.Context, name string, millis float64, dimensions map[string]string) {
	m.record(name, millis, types.StandardUnitMilliseconds, dimensions)
}

func (m *CloudWatchMetrics) record(name string, value float64, unit types.StandardUnit, dimensions map[string]string) {
	var cwDimensions []types.Dimension
	for dimName, dimValue := range dimensions {
		cwDimensions = append(cwDimensions, types.Dimension{
			Name:  aws.String(dimName),
			Value: aws.String(dimValue),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffer = append(m.buffer, types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: cwDimensions,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	})
}

// Flush pushes buffered metrics out in CloudWatch-sized batches
func (m *CloudWatchMetrics) Flush(ctx context.Context) error {
	m.mu.Lock()
	pending := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	for i := 0; i < len(pending); i += putMetricDataLimit {
		end := i + putMetricDataLimit
		if end > len(pending) {
			end = len(pending)
		}

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[i:end],
		})
		if err != nil {
			m.logger.Warn("failed to flush metrics",
				zap.Error(err),
				zap.Int("dropped", len(pending)-i),
			)
			return err
		}
	}
	return nil
}

// NoopMetrics implements ports.MetricsPublisher by discarding everything.
// Runs with metrics disabled use it so call sites stay unconditional.
type NoopMetrics struct{}

// NewNoopMetrics creates a metrics publisher that drops all datums
func NewNoopMetrics() *NoopMetrics { return &NoopMetrics{} }

func (NoopMetrics) Count(context.Context, string, float64, map[string]string)  {}
func (NoopMetrics) Gauge(context.Context, string, float64, map[string]string)  {}
func (NoopMetrics) Timing(context.Context, string, float64, map[string]string) {}
func (NoopMetrics) Flush(context.Context) error                                { return nil }

var (
	_ ports.MetricsPublisher = (*CloudWatchMetrics)(nil)
	_ ports.MetricsPublisher = (*NoopMetrics)(nil)
)
