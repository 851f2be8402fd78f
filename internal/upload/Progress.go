package upload

import (
	"math"
	"sync"
	"time"

	"github.com/casedrop/casedrop/internal/models"
)

// ProgressFunc is called by the storage backend with the bytes transferred so far
type ProgressFunc func(loaded, total int64)

// Tracker keeps the progress of all uploads of the session. Records are never deleted
type Tracker struct {
	mutex     sync.RWMutex
	records   []models.ProgressRecord
	lastId    int64
	listeners []func(record models.ProgressRecord)
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// currentTime is used in order to modify the current time for testing purposes in unit tests
var currentTime = func() time.Time {
	return time.Now()
}

// Subscribe registers a function that is called every time a record was added or updated
func (t *Tracker) Subscribe(listener func(record models.ProgressRecord)) {
	t.mutex.Lock()
	t.listeners = append(t.listeners, listener)
	t.mutex.Unlock()
}

// Start adds a new record with 0% for the file and returns the ID of the record and
// a function to update its progress
func (t *Tracker) Start(file models.UploadCandidate) (int64, ProgressFunc) {
	t.mutex.Lock()
	id := currentTime().UnixMilli()
	if id <= t.lastId {
		id = t.lastId + 1
	}
	t.lastId = id
	record := models.ProgressRecord{
		Id:         id,
		Filename:   file.Name,
		FileType:   file.Type,
		FileSize:   file.FormattedSize(),
		Percentage: 0,
		Status:     models.ProgressInProgress,
	}
	t.records = append(t.records, record)
	listeners := t.listeners
	t.mutex.Unlock()
	notify(listeners, record)

	return id, func(loaded, total int64) {
		t.update(id, func(r *models.ProgressRecord) {
			r.Percentage = calculatePercentage(loaded, total)
			if r.Percentage == 100 {
				r.Status = models.ProgressSuccess
			} else {
				r.Status = models.ProgressInProgress
			}
		})
	}
}

// Fail marks the record with the given ID as failed
func (t *Tracker) Fail(id int64) {
	t.update(id, func(r *models.ProgressRecord) {
		r.Status = models.ProgressError
	})
}

func (t *Tracker) update(id int64, modify func(r *models.ProgressRecord)) {
	t.mutex.Lock()
	index := t.indexOf(id)
	if index == -1 {
		t.mutex.Unlock()
		return
	}
	modify(&t.records[index])
	record := t.records[index]
	listeners := t.listeners
	t.mutex.Unlock()
	notify(listeners, record)
}

// Get returns the record with the given ID
func (t *Tracker) Get(id int64) (models.ProgressRecord, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	index := t.indexOf(id)
	if index == -1 {
		return models.ProgressRecord{}, false
	}
	return t.records[index], true
}

// List returns a copy of all records in the order they were created
func (t *Tracker) List() []models.ProgressRecord {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	result := make([]models.ProgressRecord, len(t.records))
	copy(result, t.records)
	return result
}

func (t *Tracker) indexOf(id int64) int {
	for i, record := range t.records {
		if record.Id == id {
			return i
		}
	}
	return -1
}

func notify(listeners []func(record models.ProgressRecord), record models.ProgressRecord) {
	for _, listener := range listeners {
		listener(record)
	}
}

func calculatePercentage(loaded, total int64) int {
	if total <= 0 {
		return 100
	}
	percentage := int(math.Round(float64(loaded) / float64(total) * 100))
	if percentage < 0 {
		return 0
	}
	if percentage > 100 {
		return 100
	}
	return percentage
}
