package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits checkout counters to CloudWatch under one namespace.
type Metrics struct {
	CW        CloudWatchAPI
	Namespace string
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics emitter bound to a namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CW:        cw,
		Namespace: namespace,
		nowFunc:   time.Now,
	}
}

// CountOrderPlaced records one placed order, dimensioned by payment method.
func (m *Metrics) CountOrderPlaced(ctx context.Context, paymentMethod string) error {
	return m.put(ctx, "OrdersPlaced", []cwtypes.Dimension{
		{Name: awsString("PaymentMethod"), Value: &paymentMethod},
	})
}

// CountPaymentConfirmed records one verified online payment.
func (m *Metrics) CountPaymentConfirmed(ctx context.Context) error {
	return m.put(ctx, "PaymentsConfirmed", nil)
}

// CountPaymentFailed records one failed or unverified payment.
func (m *Metrics) CountPaymentFailed(ctx context.Context) error {
	return m.put(ctx, "PaymentsFailed", nil)
}

func (m *Metrics) put(ctx context.Context, name string, dims []cwtypes.Dimension) error {
	ts := m.nowFunc()
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Dimensions: dims,
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitCount,
				Value:      &one,
			},
		},
	}
	if _, err := m.CW.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data (%s): %w", name, err)
	}
	return nil
}
