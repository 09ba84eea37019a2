package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJobName groups pushed series in the Pushgateway.
const PushJobName = "weather_etl"

// Push sends the registry to a Prometheus Pushgateway. Batch runs exit before
// any scraper could reach them, so this is how their metrics get out.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if err := push.New(url, PushJobName).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
