package amqp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/casedrop/casedrop/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange that is used if none is configured
const DefaultExchange = "amq.topic"

// Client is an AMQP 0-9-1 transport that uses a topic exchange
type Client struct {
	config     models.BrokerConfig
	mutex      sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
}

// New returns a new Client. No connection is established until it is used
func New(config models.BrokerConfig) *Client {
	if config.Exchange == "" {
		config.Exchange = DefaultExchange
	}
	return &Client{config: config}
}

// RoutingKey converts a MQTT style topic to an AMQP routing key
func RoutingKey(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

func (c *Client) dial() (*amqp.Connection, *amqp.Channel, error) {
	config := amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": "casedrop",
		},
	}
	if c.config.Username != "" {
		config.SASL = []amqp.Authentication{&amqp.PlainAuth{
			Username: c.config.Username,
			Password: c.config.Password,
		}}
	}
	connection, err := amqp.DialConfig(c.config.Url, config)
	if err != nil {
		return nil, nil, err
	}
	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, nil, err
	}
	err = c.declareExchange(channel)
	if err != nil {
		_ = connection.Close()
		return nil, nil, err
	}
	return connection, channel, nil
}

// declareExchange creates the exchange. Exchanges with the prefix amq. are reserved and can
// only be checked for existence
func (c *Client) declareExchange(channel *amqp.Channel) error {
	if strings.HasPrefix(c.config.Exchange, "amq.") {
		return channel.ExchangeDeclarePassive(c.config.Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	}
	return channel.ExchangeDeclare(c.config.Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

// Subscribe binds an exclusive queue to the exchange and calls handler for every message
func (c *Client) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error {
	connection, channel, err := c.dial()
	if err != nil {
		return err
	}
	defer connection.Close()
	closed := connection.NotifyClose(make(chan *amqp.Error, 1))

	queue, err := channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return err
	}
	err = channel.QueueBind(queue.Name, RoutingKey(topic), c.config.Exchange, false, nil)
	if err != nil {
		return err
	}
	deliveries, err := channel.ConsumeWithContext(ctx, queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return amqp.ErrClosed
		case delivery, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			handler(delivery.Body)
		}
	}
}

// Publish sends a persistent message to the exchange. The connection is kept open for further messages
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.channel == nil || c.channel.IsClosed() {
		if c.connection != nil {
			_ = c.connection.Close()
		}
		connection, channel, err := c.dial()
		if err != nil {
			return err
		}
		c.connection = connection
		c.channel = channel
	}
	return c.channel.PublishWithContext(ctx, c.config.Exchange, RoutingKey(topic), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
}

// Ping connects to the broker, checks the exchange and closes the connection again
func (c *Client) Ping(ctx context.Context) error {
	type result struct {
		connection *amqp.Connection
		err        error
	}
	done := make(chan result, 1)
	go func() {
		connection, _, err := c.dial()
		done <- result{connection: connection, err: err}
	}()
	select {
	case <-ctx.Done():
		go func() {
			res := <-done
			if res.connection != nil {
				_ = res.connection.Close()
			}
		}()
		return ctx.Err()
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		return res.connection.Close()
	}
}

// Close closes the publishing connection
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.connection == nil {
		return nil
	}
	err := c.connection.Close()
	c.connection = nil
	c.channel = nil
	return err
}
