package notifications

import (
	"sync"

	"github.com/casedrop/casedrop/internal/models"
)

// FeedSize is the number of notifications that are kept
const FeedSize = 100

// Feed keeps the most recent notifications in a ring buffer
type Feed struct {
	mutex    sync.RWMutex
	entries  [FeedSize]models.Notification
	next     int
	count    int
	handlers []func(notification models.Notification)
}

// NewFeed returns an empty feed
func NewFeed() *Feed {
	return &Feed{}
}

// Add stores the notification, overwriting the oldest one if the feed is full
func (f *Feed) Add(notification models.Notification) {
	f.mutex.Lock()
	f.entries[f.next] = notification
	f.next = (f.next + 1) % FeedSize
	if f.count < FeedSize {
		f.count++
	}
	handlers := f.handlers
	f.mutex.Unlock()
	for _, handler := range handlers {
		handler(notification)
	}
}

// Subscribe registers a function that is called for every new notification
func (f *Feed) Subscribe(handler func(notification models.Notification)) {
	f.mutex.Lock()
	f.handlers = append(f.handlers, handler)
	f.mutex.Unlock()
}

// List returns all stored notifications, newest first
func (f *Feed) List() []models.Notification {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	result := make([]models.Notification, 0, f.count)
	for i := 1; i <= f.count; i++ {
		result = append(result, f.entries[(f.next-i+FeedSize)%FeedSize])
	}
	return result
}

// Len returns the number of stored notifications
func (f *Feed) Len() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.count
}
