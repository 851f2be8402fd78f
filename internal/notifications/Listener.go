package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/casedrop/casedrop/internal/logging"
	"github.com/casedrop/casedrop/internal/models"
)

// ErrConnectionClosed is used if a subscription ended without an error
var ErrConnectionClosed = errors.New("connection to the broker was closed")

// ErrRetriesExhausted is wrapped by the error returned by Run if the subscription failed too often
var ErrRetriesExhausted = errors.New("maximum number of reconnection attempts reached")

// Subscriber is a pub/sub transport that messages can be received from
type Subscriber interface {
	// Subscribe calls handler for every message published to the topic. Blocks until ctx is
	// cancelled or the connection was lost
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
}

// Publisher is a pub/sub transport that messages can be published to
type Publisher interface {
	// Publish sends the payload to the topic with at-least-once delivery
	Publish(ctx context.Context, topic string, payload []byte) error
}

// ListenerOptions configure the reconnection behaviour of a Listener
type ListenerOptions struct {
	Topic      string
	MaxRetries int
	Delay      time.Duration
	// OnError is called for every failed subscription attempt, can be nil
	OnError func(err error, attempt, maxRetries int)
}

// Listener subscribes to the status topic and stores all received messages in a Feed
type Listener struct {
	subscriber Subscriber
	feed       *Feed
	options    ListenerOptions
}

// currentTime is used in order to modify the current time for testing purposes in unit tests
var currentTime = func() time.Time {
	return time.Now()
}

// NewListener returns a Listener for the topic. Missing options are set to the defaults
func NewListener(subscriber Subscriber, feed *Feed, options ListenerOptions) *Listener {
	if options.Topic == "" {
		options.Topic = DefaultTopic
	}
	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}
	if options.Delay < 0 {
		options.Delay = 0
	}
	return &Listener{
		subscriber: subscriber,
		feed:       feed,
		options:    options,
	}
}

// Run subscribes to the topic and reconnects after the configured delay if the subscription
// failed. A received message resets the retry counter. Returns nil if ctx was cancelled
func (l *Listener) Run(ctx context.Context) error {
	attempt := 0
	for {
		var received atomic.Bool
		err := l.subscriber.Subscribe(ctx, l.options.Topic, func(payload []byte) {
			received.Store(true)
			l.handle(payload)
		})
		if ctx.Err() != nil {
			return nil
		}
		if received.Load() {
			attempt = 0
		}
		if err == nil {
			err = ErrConnectionClosed
		}
		attempt++
		logging.LogSubscriptionError(l.options.Topic, err, attempt, l.options.MaxRetries)
		if l.options.OnError != nil {
			l.options.OnError(err, attempt, l.options.MaxRetries)
		}
		if attempt > l.options.MaxRetries {
			return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.options.Delay):
		}
	}
}

func (l *Listener) handle(payload []byte) {
	notification := Normalize(payload, currentTime())
	logging.LogNotification(notification)
	l.feed.Add(notification)
}

// StatusPublisher publishes job status changes to the status topic
type StatusPublisher struct {
	publisher Publisher
	topic     string
}

// NewStatusPublisher returns a StatusPublisher for the topic, DefaultTopic if empty
func NewStatusPublisher(publisher Publisher, topic string) *StatusPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &StatusPublisher{publisher: publisher, topic: topic}
}

// PublishStatus sends a message for the job status
func (p *StatusPublisher) PublishStatus(ctx context.Context, status models.JobStatus) (models.NotificationPayload, error) {
	message := fmt.Sprintf("Case %s: %s", status.CaseId, status.Status)
	payload := NewPayload(message, currentTime())
	err := p.publisher.Publish(ctx, p.topic, mustMarshal(payload))
	return payload, err
}
