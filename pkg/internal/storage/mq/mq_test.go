package mq_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/internal/storage/mq"
)

func TestMemoryPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mq.New(ctx, configs.MQConfig{
		Type:   configs.MQTypeMemory,
		Common: configs.MQCommonConfig{BufferSize: 8, EnableMetrics: true},
	}, mq.Options{Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ch, err := client.Subscribe(ctx, "nv.trash.sweep.completed")
	if err != nil {
		t.Fatal(err)
	}

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"user":"alice"}`))
	if err := client.Publish(ctx, "nv.trash.sweep.completed", msg); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		if string(got.Payload) != `{"user":"alice"}` {
			t.Errorf("payload = %s", got.Payload)
		}

		got.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestUnsupportedType(t *testing.T) {
	if _, err := mq.New(context.Background(), configs.MQConfig{Type: "kafka"}, mq.Options{}); err == nil {
		t.Fatal("expected error")
	}

	if len(mq.GetRegisteredMQTypes()) < 3 {
		t.Errorf("registered = %v", mq.GetRegisteredMQTypes())
	}
}
