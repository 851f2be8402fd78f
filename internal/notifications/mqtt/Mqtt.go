package mqtt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// qosAtLeastOnce is used for publishing and subscribing
const qosAtLeastOnce = 1

const connectTimeout = 15 * time.Second

// ErrTimeout is returned if the broker did not respond in time
var ErrTimeout = errors.New("timeout while waiting for the MQTT broker")

// Client is a MQTT transport for TCP and WebSocket brokers
type Client struct {
	config    models.BrokerConfig
	mutex     sync.Mutex
	publisher paho.Client
}

// New returns a new Client. No connection is established until it is used
func New(config models.BrokerConfig) *Client {
	if config.ClientId == "" {
		config.ClientId = "casedrop-" + helper.GenerateRandomString(8)
	}
	return &Client{config: config}
}

func (c *Client) newOptions(clientId string) *paho.ClientOptions {
	options := paho.NewClientOptions().
		AddBroker(c.config.Url).
		SetClientID(clientId).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(connectTimeout)
	if c.config.Username != "" {
		options.SetUsername(c.config.Username)
		options.SetPassword(c.config.Password)
	}
	return options
}

// Subscribe connects to the broker and calls handler for every message of the topic
func (c *Client) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error {
	lost := make(chan error, 1)
	options := c.newOptions(c.config.ClientId + "-sub")
	options.SetConnectionLostHandler(func(_ paho.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})
	client := paho.NewClient(options)
	err := connect(ctx, client)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	err = wait(ctx, client.Subscribe(topic, qosAtLeastOnce, func(_ paho.Client, message paho.Message) {
		handler(message.Payload())
	}))
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err = <-lost:
		return err
	}
}

// Publish sends the payload to the topic. The connection is kept open for further messages
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	client, err := c.getPublisher(ctx)
	if err != nil {
		return err
	}
	return wait(ctx, client.Publish(topic, qosAtLeastOnce, false, payload))
}

func (c *Client) getPublisher(ctx context.Context) (paho.Client, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.publisher != nil && c.publisher.IsConnectionOpen() {
		return c.publisher, nil
	}
	client := paho.NewClient(c.newOptions(c.config.ClientId + "-pub"))
	err := connect(ctx, client)
	if err != nil {
		return nil, err
	}
	c.publisher = client
	return client, nil
}

// Close disconnects the publishing connection
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.publisher != nil {
		c.publisher.Disconnect(250)
		c.publisher = nil
	}
	return nil
}

// Ping connects to the broker and disconnects again
func (c *Client) Ping(ctx context.Context) error {
	client := paho.NewClient(c.newOptions(c.config.ClientId + "-ping"))
	err := connect(ctx, client)
	if err != nil {
		return err
	}
	client.Disconnect(0)
	return nil
}

// connect waits for the connection. If it fails or ctx is done first, the client is
// disconnected, as the attempt may still complete in the background
func connect(ctx context.Context, client paho.Client) error {
	err := wait(ctx, client.Connect())
	if err != nil {
		client.Disconnect(0)
	}
	return err
}

func wait(ctx context.Context, token paho.Token) error {
	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTimeout
	}
}
