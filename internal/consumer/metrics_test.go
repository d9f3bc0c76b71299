package consumer

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, topic string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, lastMessageGauge.WithLabelValues(topic).Write(&m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, topic, eventType string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, processedCounter.WithLabelValues(topic, eventType).Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordProcessedTracksLastMessageTime(t *testing.T) {
	before := counterValue(t, "metrics_test", "activity.logged")

	recordProcessed(Message{Topic: "metrics_test", EventType: "activity.logged", Timestamp: time.Unix(1716200000, 0)})
	require.Equal(t, before+1, counterValue(t, "metrics_test", "activity.logged"))
	require.Equal(t, float64(1716200000), gaugeValue(t, "metrics_test"))

	recordProcessed(Message{Topic: "metrics_test", EventType: "activity.logged"})
	require.Equal(t, float64(1716200000), gaugeValue(t, "metrics_test"), "zero timestamps leave the gauge alone")
}
