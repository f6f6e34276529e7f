package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Warner receives connection and buffering notices.
type Warner interface {
	Printf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Device     string
	BufferSize int
	Log        Warner
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the broker is unreachable are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topic  string
	device string
	log    Warner

	mu  sync.Mutex
	out *outbox
}

// NewRealPublisher creates a publisher for the given broker. The broker being
// down is not an error: the client keeps retrying in the background and
// messages are buffered meanwhile.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.BufferSize < 1 {
		opts.BufferSize = 64
	}
	p := &RealPublisher{
		topic:  Topic,
		device: opts.Device,
		log:    opts.Log,
		out:    newOutbox(opts.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventLWT, Device: opts.Device})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			p.infof("mqtt: connected to %s", opts.Broker)
			go p.drain()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.warnf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(clientOpts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		p.warnf("mqtt: broker %s not reachable yet, buffering", opts.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// PublishLock sends a lock event. QoS 1: transitions should not be lost.
func (p *RealPublisher) PublishLock(event LockEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(p.topic, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	if event.Device == "" {
		event.Device = p.device
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		if p.out.add(pendingMsg{topic: topic, payload: payload, qos: qos, retained: retained}) {
			p.warnf("mqtt: outbox full (%d events), dropping oldest", p.out.capacity())
		}
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// drain replays buffered messages in order.
func (p *RealPublisher) drain() {
	p.mu.Lock()
	msgs, dropped := p.out.take()
	p.mu.Unlock()

	if dropped > 0 {
		p.warnf("mqtt: %d events were dropped while disconnected", dropped)
	}
	if len(msgs) > 0 {
		p.infof("mqtt: replaying %d buffered events", len(msgs))
	}
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			p.warnf("mqtt: replay to %s failed: %v", m.topic, token.Error())
		}
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) infof(format string, args ...any) {
	if p.log != nil {
		p.log.Printf(format, args...)
	}
}

func (p *RealPublisher) warnf(format string, args ...any) {
	if p.log != nil {
		p.log.Warnf(format, args...)
	}
}
