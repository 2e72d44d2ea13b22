// Package bus wraps the MQTT connection every pipeline component talks through.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Publisher is what components need to emit messages.
type Publisher interface {
	Publish(topic string, retained bool, v any) error
}

// Handler receives the raw payload of a message on topic.
type Handler func(topic string, payload []byte)

// Options configures the broker connection.
type Options struct {
	BrokerURL      string
	Role           string // used as the client id prefix
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	Logger         *slog.Logger
}

// Client is a connected MQTT session. Subscriptions are replayed on every reconnect because
// sessions are clean.
type Client struct {
	cli            mqtt.Client
	publishTimeout time.Duration
	logger         *slog.Logger

	mu   sync.Mutex
	subs map[string]Handler
}

// Connect dials the broker and blocks until the session is up or ctx expires.
func Connect(ctx context.Context, o Options) (*Client, error) {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 2 * time.Second
	}

	c := &Client{
		publishTimeout: o.PublishTimeout,
		logger:         o.Logger.With("broker", o.BrokerURL),
		subs:           make(map[string]Handler),
	}

	clientID := fmt.Sprintf("%s-%s", o.Role, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.BrokerURL)
	opts.SetClientID(clientID)
	opts.SetProtocolVersion(4)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetConnectTimeout(o.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetOrderMatters(true)

	opts.OnConnect = func(cli mqtt.Client) {
		c.logger.Info("mqtt connection established", "client_id", clientID)
		c.resubscribe(cli)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.logger.Warn("mqtt connection lost, will auto-reconnect", "error", err)
	}

	c.cli = mqtt.NewClient(opts)

	c.logger.Info("connecting to mqtt broker", "client_id", clientID)
	token := c.cli.Connect()

	connCtx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("mqtt connection failed: %w", err)
		}
	case <-connCtx.Done():
		c.cli.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection timeout: %w", connCtx.Err())
	}

	return c, nil
}

// Subscribe registers h for topic (wildcards allowed) at QoS 0.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	c.subs[topic] = h
	c.mu.Unlock()

	if !c.cli.IsConnectionOpen() {
		// OnConnect will pick it up.
		return nil
	}
	return c.subscribe(c.cli, topic, h)
}

func (c *Client) subscribe(cli mqtt.Client, topic string, h Handler) error {
	token := cli.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	c.logger.Info("subscribed", "topic", topic)
	return nil
}

func (c *Client) resubscribe(cli mqtt.Client) {
	c.mu.Lock()
	subs := make(map[string]Handler, len(c.subs))
	for t, h := range c.subs {
		subs[t] = h
	}
	c.mu.Unlock()

	for topic, h := range subs {
		// Subscribing from inside the connect callback must not block the paho router.
		go func(topic string, h Handler) {
			if err := c.subscribe(cli, topic, h); err != nil {
				c.logger.Error("resubscribe failed", "topic", topic, "error", err)
			}
		}(topic, h)
	}
}

// Publish JSON-encodes v and sends it at QoS 0.
func (c *Client) Publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	token := c.cli.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(c.publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	c.logger.Debug("published", "topic", topic, "retained", retained, "size", len(payload))
	return nil
}

// Close disconnects with a short grace period for in-flight messages.
func (c *Client) Close() {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
		c.logger.Info("mqtt disconnected")
	}
}
