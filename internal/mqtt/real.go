package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/rc-indicator/internal/logic"
)

// offlineCapacity bounds the messages kept while the broker is unreachable.
const offlineCapacity = 100

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are buffered and replayed on
// reconnect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	offline *ringBuffer[bufferedMsg]
	now     func() time.Time
}

// NewRealPublisher creates a publisher for the given broker. Connecting
// happens in the background; the broker need not be reachable at startup.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{
		offline: newRingBuffer[bufferedMsg]("offline buffer", offlineCapacity),
		now:     time.Now,
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: p.now(),
		Event:     EventShutdown,
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt: connect to %s: %v", broker, err)
		}
	}()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	log.Printf("mqtt: connected")

	p.mu.Lock()
	pending := p.offline.drainAll()
	p.mu.Unlock()

	reconnected, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: EventReconnected})
	c.Publish(TopicSystem, 1, true, reconnected)

	if len(pending) > 0 {
		log.Printf("mqtt: replaying %d buffered messages", len(pending))
	}
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.offline.push(msg)
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// Publish sends an indicator event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
