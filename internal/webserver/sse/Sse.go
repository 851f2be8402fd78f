package sse

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/casedrop/casedrop/internal/configuration/database"
	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/webserver/headers"
)

var listeners = make(map[string]listener)
var mutex = sync.RWMutex{}

var maxConnection = 2 * time.Hour
var pingInterval = 15 * time.Second

type listener struct {
	Reply    func(reply string)
	Shutdown func()
}

func addListener(id string, channel listener) {
	mutex.Lock()
	listeners[id] = channel
	mutex.Unlock()
}

func removeListener(id string) {
	mutex.Lock()
	delete(listeners, id)
	mutex.Unlock()
}

type eventJobStatus struct {
	Event     string `json:"event"`
	CaseId    string `json:"caseId"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func formatStatus(status models.JobStatus) string {
	message, err := json.Marshal(eventJobStatus{
		Event:     "jobStatus",
		CaseId:    status.CaseId,
		Status:    status.Status,
		Timestamp: status.Timestamp,
	})
	helper.Check(err)
	return "event: message\ndata: " + string(message) + "\n\n"
}

// PublishNewStatus sends a new job status to all listeners
func PublishNewStatus(status models.JobStatus) {
	reply := formatStatus(status)
	mutex.RLock()
	for _, channel := range listeners {
		go channel.Reply(reply)
	}
	mutex.RUnlock()
}

// Shutdown stops the SSE and closes the connection to all listeners
func Shutdown() {
	mutex.RLock()
	for _, channel := range listeners {
		channel.Shutdown()
	}
	mutex.RUnlock()
}

// GetStatusSSE sends the status of all existing cases and new updates to a new listener
func GetStatusSSE(w http.ResponseWriter, r *http.Request) {
	headers.WriteEventStream(w)
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	creationTime := time.Now()

	replyChannel := make(chan string)
	shutdownChannel := make(chan bool)
	channel := listener{Reply: func(reply string) {
		select {
		case replyChannel <- reply:
		case <-ctx.Done():
		}
	}, Shutdown: func() {
		go func() {
			select {
			case shutdownChannel <- true:
			case <-ctx.Done():
			}
		}()
	}}
	channelId := helper.GenerateRandomString(20)
	addListener(channelId, channel)
	defer removeListener(channelId)

	for _, existingCase := range database.GetAllCases() {
		_, _ = io.WriteString(w, formatStatus(existingCase.ToJobStatus()))
	}
	flusher.Flush()
	for {
		if time.Now().After(creationTime.Add(maxConnection)) {
			flusher.Flush()
			return
		}
		select {
		case reply := <-replyChannel:
			_, _ = io.WriteString(w, reply)
		case <-time.After(pingInterval):
			_, _ = io.WriteString(w, "event: ping\n\n")
		case <-ctx.Done():
			return
		case <-shutdownChannel:
			return
		}
		flusher.Flush()
	}
}
