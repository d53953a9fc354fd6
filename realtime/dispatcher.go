package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"

	"github.com/menprac-cloud/menPrac-backend/broker"
	"github.com/menprac-cloud/menPrac-backend/metrics"
)

// Dispatcher delivers events to room members or to every connection.
// Delivery is fire-and-forget: a member whose transport is already broken is
// dropped silently, delivery to the remaining members continues, and no error
// reaches the caller - by the time a handler dispatches, its own persistence
// step has already succeeded independently.
//
// With a broker configured, every dispatch is also mirrored to the other
// server instances so connections held elsewhere receive it too.
type Dispatcher struct {
	registry *Registry
	broker   broker.MessageBroker // nil for single-instance deployments
	topic    string
	serverID string
}

// NewDispatcher creates a dispatcher over the given registry. The broker may
// be nil.
func NewDispatcher(registry *Registry, mb broker.MessageBroker, topic, serverID string) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		broker:   mb,
		topic:    topic,
		serverID: serverID,
	}
}

// EmitToRoom delivers the event to every current member of the room, in
// issuance order per member. An empty room is a no-op.
func (d *Dispatcher) EmitToRoom(ctx context.Context, room string, event Event) {
	d.deliver(d.registry.MembersOf(room), event)
	d.mirror(ctx, room, event)
}

// EmitToAll delivers the event to every connected client regardless of room
// membership.
func (d *Dispatcher) EmitToAll(ctx context.Context, event Event) {
	d.deliver(d.registry.All(), event)
	d.mirror(ctx, "", event)
}

func (d *Dispatcher) deliver(clients []*Client, event Event) {
	for _, client := range clients {
		if err := client.WriteEvent(event); err != nil {
			// Broken transport: drop this delivery, clean the connection up,
			// carry on with the rest.
			log.Printf("Dropping %s for connection %s: %v", event.Name, client.ID, err)
			metrics.EventsDropped.Inc()
			client.Close(websocket.CloseInternalServerErr, "Failed to send event")
			d.registry.Remove(client)
			continue
		}
		metrics.EventsDispatched.WithLabelValues(event.Name).Inc()
	}
}

// mirror publishes the event so other instances can deliver it to their own
// connections. A publish failure only affects remote delivery and is logged,
// never surfaced.
func (d *Dispatcher) mirror(ctx context.Context, room string, event Event) {
	if d.broker == nil {
		return
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		log.Printf("Failed to marshal %s payload for broker: %v", event.Name, err)
		return
	}
	envelope := broker.Envelope{
		ServerID: d.serverID,
		Room:     room,
		Event:    event.Name,
		Payload:  payload,
	}
	if err := d.broker.Publish(ctx, d.topic, envelope); err != nil {
		log.Printf("Failed to publish %s to broker: %v", event.Name, err)
		return
	}
	metrics.BrokerMessagesPublished.WithLabelValues(d.broker.Type()).Inc()
}

// ListenForRemoteEvents consumes envelopes published by other instances and
// delivers them to local connections. Envelopes this instance originated were
// already delivered locally and are skipped.
func (d *Dispatcher) ListenForRemoteEvents(ctx context.Context) {
	if d.broker == nil {
		return
	}

	envelopes, err := d.broker.Subscribe(ctx, d.topic)
	if err != nil {
		log.Printf("Failed to subscribe to %s: %v", d.topic, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case envelope, ok := <-envelopes:
			if !ok {
				log.Println("Broker event channel closed")
				return
			}

			if envelope.ServerID == d.serverID {
				continue
			}

			event := Event{Name: envelope.Event, Payload: json.RawMessage(envelope.Payload)}
			if envelope.Room == "" {
				d.deliver(d.registry.All(), event)
			} else {
				d.deliver(d.registry.MembersOf(envelope.Room), event)
			}
		}
	}
}
