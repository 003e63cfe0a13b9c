package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/backlight-controller/internal/logger"
	"github.com/sweeney/backlight-controller/internal/logic"
)

// bufferCapacity bounds the messages held while the broker is unreachable.
const bufferCapacity = 100

// connectTimeout bounds a single connect attempt inside paho. Each attempt
// finishes before the next one starts, so paho never sees overlapping Connects.
const connectTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are buffered and replayed, oldest
// first, once the client reconnects.
type RealPublisher struct {
	client      paho.Client
	eventTopic  string
	systemTopic string
	log         *logger.Logger

	mu        sync.Mutex
	buffer    *ringBuffer
	connected bool
	everUp    bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRealPublisher creates a publisher for the given broker and returns
// without waiting for the connection. The initial connect is retried in the
// background with exponential backoff until it succeeds or Close is called;
// after that the client reconnects on its own. Messages published before the
// first connect are buffered.
func NewRealPublisher(broker, clientID string, log *logger.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		eventTopic:  EventTopic(clientID),
		systemTopic: SystemTopic(clientID),
		log:         log,
		buffer:      newRingBuffer(bufferCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30*time.Second).
		SetConnectTimeout(connectTimeout).
		SetWill(p.systemTopic, string(will), SystemQoS, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.connect(ctx, broker)

	return p, nil
}

func (p *RealPublisher) connect(ctx context.Context, broker string) {
	defer p.wg.Done()

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		token := p.client.Connect()
		select {
		case <-token.Done():
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		}
		if err := token.Error(); err != nil {
			p.log.Warnf("connect to %s failed: %v", broker, err)
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		p.log.Debugf("gave up connecting to %s: %v", broker, err)
		return
	}
	p.log.Infof("connected to %s", broker)
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.everUp
	p.everUp = true
	p.connected = true
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	if len(pending) > 0 {
		p.log.Infof("replaying %d buffered messages", len(pending))
	}
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}

	if !reconnect {
		return
	}

	payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
	if err == nil {
		c.Publish(p.systemTopic, SystemQoS, false, payload)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.log.Warnf("connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.connected {
		if p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained}) {
			p.log.Warnf("buffer full (%d messages), dropping oldest", bufferCapacity)
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a backlight event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	return p.send(p.eventTopic, EventQoS, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	if err := p.send(p.systemTopic, SystemQoS, event.Retained, payload); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// Close stops any pending connect attempt and disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.cancel()
	p.wg.Wait()
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
