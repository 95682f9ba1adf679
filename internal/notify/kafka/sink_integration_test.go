//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"selfid/internal/notify"
	"selfid/internal/notify/kafka"
	"selfid/pkg/testutil/containers"
)

func TestSinkPublishesToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)

	const topic = "selfid.notifications.test"
	sink, err := kafka.NewSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close()

	events := []notify.Event{
		{Kind: notify.KindKeyAdded, KeyID: "k1"},
		{Kind: notify.KindClaimAdded, ClaimID: "c1", Topic: 42},
		{Kind: notify.KindExecutionExecuted, RequestID: 1, Succeeded: true},
	}
	for _, event := range events {
		require.NoError(t, sink.Publish(ctx, event))
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var received []notify.Event
	deadline := time.Now().Add(30 * time.Second)
	for len(received) < len(events) && time.Now().Before(deadline) {
		pollCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		fetches := consumer.PollFetches(pollCtx)
		cancel()
		fetches.EachRecord(func(record *kgo.Record) {
			var event notify.Event
			require.NoError(t, json.Unmarshal(record.Value, &event))
			received = append(received, event)
		})
	}

	require.Len(t, received, len(events))
	kinds := make(map[notify.Kind]notify.Event, len(received))
	for _, event := range received {
		kinds[event.Kind] = event
	}
	assert.Equal(t, notify.Event{Kind: notify.KindKeyAdded, KeyID: "k1"}, kinds[notify.KindKeyAdded])
	assert.Equal(t, uint64(1), kinds[notify.KindExecutionExecuted].RequestID)
	assert.True(t, kinds[notify.KindExecutionExecuted].Succeeded)
}
