// Package broadcast publishes tick summaries to NATS so external
// observers (dashboards, the renderer's data feed, another service)
// can follow a running simulation without polling the control-plane
// HTTP API: a thin struct around a *nats.Conn, JSON-encoded payloads,
// one tick subject per scenario.
package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"landcycle/internal/ecosim/driver"
)

// TickSubject is the subject a scenario's tick summaries are published
// under, namespaced by scenario so multiple runs can share a NATS
// cluster.
func TickSubject(scenario string) string {
	return "ecosystem.tick." + scenario
}

// Publisher publishes simulation tick summaries to NATS.
type Publisher struct {
	nc       *nats.Conn
	scenario string
}

// NewPublisher wraps an existing NATS connection for a named scenario.
func NewPublisher(nc *nats.Conn, scenario string) *Publisher {
	return &Publisher{nc: nc, scenario: scenario}
}

// PublishTick JSON-encodes a tick's summary and publishes it to the
// scenario's subject. Publish failures are returned rather than logged
// here so the caller's driver loop decides whether a broadcast failure
// should interrupt the tick loop.
func (p *Publisher) PublishTick(summary driver.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling tick summary: %w", err)
	}
	if err := p.nc.Publish(TickSubject(p.scenario), data); err != nil {
		return fmt.Errorf("publishing tick summary: %w", err)
	}
	return nil
}

// Subscriber receives tick summaries published by a Publisher,
// following the EventListener subscribe-and-decode shape.
type Subscriber struct {
	nc *nats.Conn
}

// NewSubscriber wraps an existing NATS connection.
func NewSubscriber(nc *nats.Conn) *Subscriber {
	return &Subscriber{nc: nc}
}

// OnTick subscribes to a scenario's tick subject and invokes handler
// for each decoded summary. Decode failures are passed to handler via
// an error channel-free callback signature, so a single malformed
// message is reported and skipped rather than tearing the
// subscription down.
func (s *Subscriber) OnTick(scenario string, handler func(driver.Summary), onErr func(error)) (*nats.Subscription, error) {
	return s.nc.Subscribe(TickSubject(scenario), func(msg *nats.Msg) {
		var summary driver.Summary
		if err := json.Unmarshal(msg.Data, &summary); err != nil {
			if onErr != nil {
				onErr(fmt.Errorf("decoding tick summary: %w", err))
			}
			return
		}
		handler(summary)
	})
}
