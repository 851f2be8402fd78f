package broker

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/notifications"
	"github.com/casedrop/casedrop/internal/notifications/amqp"
	"github.com/casedrop/casedrop/internal/notifications/mqtt"
)

// ErrUnsupportedScheme is returned if the broker URL does not use a supported protocol
var ErrUnsupportedScheme = errors.New("unsupported broker URL, use mqtt(s)://, tcp://, ssl://, ws(s):// or amqp(s)://")

// Transport can publish and subscribe to topics
type Transport interface {
	notifications.Subscriber
	notifications.Publisher
	// Ping returns nil if a connection to the broker can be established
	Ping(ctx context.Context) error
	Close() error
}

// New returns the transport for the URL scheme of the broker
func New(config models.BrokerConfig) (Transport, error) {
	if !config.IsProvided() {
		return nil, errors.New("no broker has been configured")
	}
	parsed, err := url.Parse(config.Url)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(parsed.Scheme) {
	case "mqtt", "mqtts", "tcp", "ssl", "tls", "ws", "wss":
		return mqtt.New(config), nil
	case "amqp", "amqps":
		return amqp.New(config), nil
	default:
		return nil, ErrUnsupportedScheme
	}
}
