package broadcast

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landcycle/internal/ecosim/driver"
)

func TestTickSubject(t *testing.T) {
	assert.Equal(t, "ecosystem.tick.flat-world", TickSubject("flat-world"))
}

func TestPublishAndSubscribeTick(t *testing.T) {
	nc, err := nats.Connect(nats.DefaultURL, nats.Timeout(2*time.Second))
	if err != nil {
		t.Skip("NATS not available:", err)
	}
	defer nc.Close()

	pub := NewPublisher(nc, "integration-test")
	sub := NewSubscriber(nc)

	received := make(chan driver.Summary, 1)
	subscription, err := sub.OnTick("integration-test", func(s driver.Summary) {
		received <- s
	}, func(err error) {
		t.Errorf("unexpected decode error: %v", err)
	})
	require.NoError(t, err)
	defer subscription.Unsubscribe()

	want := driver.Summary{Year: 7, TotalTreeCount: 42}
	require.NoError(t, pub.PublishTick(want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick summary")
	}
}
