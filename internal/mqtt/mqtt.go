// Package mqtt publishes relay transitions and system events to an MQTT
// broker and receives relay commands, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sweeney/bangbang"
)

// DefaultTopicPrefix is the topic root used when none is configured.
const DefaultTopicPrefix = "home/relay"

// Topics are the three topics a relay uses under its prefix.
type Topics struct {
	Events string // transitions, published
	System string // lifecycle events, published
	Set    string // commands, subscribed
}

// TopicsFor builds the topic set for prefix.
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{
		Events: prefix + "/events",
		System: prefix + "/system",
		Set:    prefix + "/set",
	}
}

// Publisher publishes relay events to MQTT.
type Publisher interface {
	// Publish sends a transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(t bangbang.Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool

	// Buffered returns the number of messages waiting for a connection.
	Buffered() int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Relay RelayPayload `json:"relay"`
}

// RelayPayload contains the transition details.
type RelayPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// StateName renders a state as ON or OFF.
func StateName(s bangbang.State) string {
	if s == bangbang.On {
		return "ON"
	}
	return "OFF"
}

// FormatPayload creates the JSON payload for a transition.
func FormatPayload(t bangbang.Transition) ([]byte, error) {
	payload := Payload{
		Relay: RelayPayload{
			Timestamp: t.At.UTC().Format(time.RFC3339),
			Event:     StateName(t.To),
			From:      StateName(t.From),
			To:        StateName(t.To),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// Command is a request received on the set topic.
type Command string

const (
	CommandOn   Command = "ON"
	CommandOff  Command = "OFF"
	CommandBang Command = "BANG"
)

// ParseCommand parses a command payload. It accepts ON, OFF, BANG and
// TOGGLE, plus the state names A and B, in any case.
func ParseCommand(payload []byte) (Command, error) {
	v := strings.ToUpper(strings.TrimSpace(string(payload)))
	switch v {
	case "BANG", "TOGGLE":
		return CommandBang, nil
	}
	s, err := bangbang.ParseState(v)
	if err != nil {
		return "", fmt.Errorf("parse command %q: unknown command", payload)
	}
	return Command(StateName(s)), nil
}

// Observer adapts p so each transition is published. Failures are logged,
// since an observer has nowhere to return them.
func Observer(p Publisher) bangbang.Observer {
	return bangbang.ObserverFunc(func(t bangbang.Transition) {
		if err := p.Publish(t); err != nil {
			log.Printf("publish error: %v", err)
		}
	})
}
