package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/test"
)

// fakeSubscriber runs one scripted session per call to Subscribe
type fakeSubscriber struct {
	mutex    sync.Mutex
	sessions []func(ctx context.Context, handler func(payload []byte)) error
	calls    int
	topics   []string
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error {
	f.mutex.Lock()
	f.topics = append(f.topics, topic)
	index := f.calls
	f.calls++
	f.mutex.Unlock()
	if index < len(f.sessions) {
		return f.sessions[index](ctx, handler)
	}
	<-ctx.Done()
	return ctx.Err()
}

func failingSession(ctx context.Context, handler func(payload []byte)) error {
	return errors.New("connection refused")
}

func TestListenerRetriesExhausted(t *testing.T) {
	subscriber := &fakeSubscriber{}
	for i := 0; i < 10; i++ {
		subscriber.sessions = append(subscriber.sessions, failingSession)
	}
	var attempts []int
	listener := NewListener(subscriber, NewFeed(), ListenerOptions{
		MaxRetries: 5,
		Delay:      time.Millisecond,
		OnError: func(err error, attempt, maxRetries int) {
			attempts = append(attempts, attempt)
			test.IsEqualInt(t, maxRetries, 5)
		},
	})
	err := listener.Run(context.Background())
	test.IsEqualBool(t, errors.Is(err, ErrRetriesExhausted), true)
	test.ContainsString(t, err.Error(), "connection refused")
	test.IsEqualInt(t, subscriber.calls, 6)
	test.IsEqualInt(t, len(attempts), 6)
	test.IsEqualInt(t, attempts[5], 6)
	test.IsEqualString(t, subscriber.topics[0], DefaultTopic)
}

func TestListenerResetsRetries(t *testing.T) {
	receivingSession := func(ctx context.Context, handler func(payload []byte)) error {
		handler([]byte(`{"message":"Execution RUNNING","messageId":"1"}`))
		return nil
	}
	subscriber := &fakeSubscriber{
		sessions: []func(ctx context.Context, handler func(payload []byte)) error{
			failingSession, failingSession, receivingSession, failingSession, failingSession, failingSession,
		},
	}
	feed := NewFeed()
	listener := NewListener(subscriber, feed, ListenerOptions{Topic: "custom/topic", MaxRetries: 2, Delay: time.Millisecond})
	err := listener.Run(context.Background())
	test.IsEqualBool(t, errors.Is(err, ErrRetriesExhausted), true)
	// 2 failures, 1 session with a message that resets the counter, then 2 more failures
	test.IsEqualInt(t, subscriber.calls, 5)
	test.IsEqualInt(t, feed.Len(), 1)
	test.IsEqualString(t, feed.List()[0].Message, "Execution RUNNING")
	test.IsEqualString(t, subscriber.topics[0], "custom/topic")
}

func TestListenerCancel(t *testing.T) {
	subscriber := &fakeSubscriber{}
	feed := NewFeed()
	listener := NewListener(subscriber, feed, ListenerOptions{MaxRetries: -1, Delay: -1})
	test.IsEqualInt(t, listener.options.MaxRetries, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- listener.Run(ctx)
	}()
	cancel()
	test.IsNil(t, <-done)

	subscriber = &fakeSubscriber{sessions: []func(ctx context.Context, handler func(payload []byte)) error{failingSession}}
	listener = NewListener(subscriber, feed, ListenerOptions{MaxRetries: 5, Delay: time.Hour})
	ctx, cancel = context.WithCancel(context.Background())
	go func() {
		done <- listener.Run(ctx)
	}()
	for {
		subscriber.mutex.Lock()
		calls := subscriber.calls
		subscriber.mutex.Unlock()
		if calls > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	test.IsNil(t, <-done)
}

type fakePublisher struct {
	topic   string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	f.topic = topic
	f.payload = payload
	return f.err
}

func TestStatusPublisher(t *testing.T) {
	currentTime = func() time.Time {
		return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	}
	defer func() { currentTime = time.Now }()
	publisher := &fakePublisher{}
	statusPublisher := NewStatusPublisher(publisher, "")
	payload, err := statusPublisher.PublishStatus(context.Background(), models.JobStatus{CaseId: "case1", Status: models.JobFailed})
	test.IsNil(t, err)
	test.IsEqualString(t, publisher.topic, DefaultTopic)
	test.IsEqualString(t, payload.Message, "Case case1: FAILED")
	test.IsEqualString(t, payload.Timestamp, "2024-05-01T10:00:00.000Z")

	var decoded models.NotificationPayload
	err = json.Unmarshal(publisher.payload, &decoded)
	test.IsNil(t, err)
	test.IsEqualString(t, decoded.MessageId, payload.MessageId)
	test.IsEqualString(t, Normalize(publisher.payload, time.Now()).Priority, models.PriorityHigh)

	publisher.err = errors.New("not connected")
	statusPublisher = NewStatusPublisher(publisher, "other/topic")
	_, err = statusPublisher.PublishStatus(context.Background(), models.JobStatus{CaseId: "case1", Status: models.JobRunning})
	test.IsNotNil(t, err)
	test.IsEqualString(t, publisher.topic, "other/topic")
}
