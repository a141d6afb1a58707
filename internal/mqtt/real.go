package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/bangbang"
)

// bufferCapacity is how many messages are held while disconnected.
const bufferCapacity = 100

const (
	publishTimeout = 5 * time.Second
	qosEvents      = 0 // at-most-once for transitions
	qosSystem      = 1 // at-least-once for lifecycle events
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topics Topics

	mu       sync.Mutex
	buf      *ringBuffer
	commands func(Command)
	seen     bool // has connected at least once
}

// ClientID returns id, or a random relay client ID if id is empty.
func ClientID(id string) string {
	if id != "" {
		return id
	}
	return "bangbang-relay-" + uuid.NewString()
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is made in the background with automatic retry, so this never blocks on
// the network.
func NewRealPublisher(broker, clientID string, topics Topics) *RealPublisher {
	p := &RealPublisher{
		topics: topics,
		buf:    newRingBuffer(bufferCapacity),
	}

	will, _ := FormatSystemPayload(SystemEvent{Event: "LWT", Reason: "CONNECTION_LOST"})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID(clientID)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(topics.System, string(will), qosSystem, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// onConnect resubscribes and replays anything buffered while offline.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnected := p.seen
	p.seen = true
	pending := p.buf.drainAll()
	handler := p.commands
	p.mu.Unlock()

	log.Printf("mqtt: connected")

	if handler != nil {
		if err := p.subscribe(handler); err != nil {
			log.Printf("mqtt: resubscribe: %v", err)
		}
	}

	for _, m := range pending {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: replay to %s: %v", m.topic, err)
		}
	}

	if reconnected {
		event := SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"}
		if err := p.PublishSystem(event); err != nil {
			log.Printf("mqtt: publish reconnected event: %v", err)
		}
	}
}

// Publish sends a transition event to the MQTT broker.
func (p *RealPublisher) Publish(t bangbang.Transition) error {
	payload, err := FormatPayload(t)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.Events, payload: payload, qos: qosEvents})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: qosSystem, retained: event.Retained})
}

func (p *RealPublisher) publish(m bufferedMsg) error {
	// The check and the push share the lock with onConnect's drain, so a
	// message is never pushed after a drain it should have been part of.
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buf.push(m)
		p.mu.Unlock()
		return nil
	}
	// Anything buffered after onConnect drained goes out first.
	pending := p.buf.drainAll()
	p.mu.Unlock()

	for _, old := range pending {
		if err := p.send(old); err != nil {
			log.Printf("mqtt: replay to %s: %v", old.topic, err)
		}
	}

	return p.send(m)
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// Subscribe delivers commands from the set topic to handler. Malformed
// payloads are logged and dropped. The subscription is restored after every
// reconnect.
func (p *RealPublisher) Subscribe(handler func(Command)) error {
	p.mu.Lock()
	p.commands = handler
	p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		return nil // onConnect subscribes
	}
	return p.subscribe(handler)
}

func (p *RealPublisher) subscribe(handler func(Command)) error {
	token := p.client.Subscribe(p.topics.Set, qosSystem, func(_ paho.Client, msg paho.Message) {
		cmd, err := ParseCommand(msg.Payload())
		if err != nil {
			log.Printf("mqtt: %v", err)
			return
		}
		handler(cmd)
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe %s: timeout", p.topics.Set)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", p.topics.Set, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
