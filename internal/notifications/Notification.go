package notifications

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/google/uuid"
)

// DefaultTopic is the topic the job status messages are published to
const DefaultTopic = "stepfunction/status"

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

var failureIndicators = []string{"FAILED", "ERROR", "ABORTED", "TIMED_OUT"}

// incomingPayload accepts any JSON type for message and timestamp, as publishers are not consistent
type incomingPayload struct {
	Message   json.RawMessage `json:"message"`
	MessageId string          `json:"messageId"`
	Timestamp json.RawMessage `json:"timestamp"`
	Priority  string          `json:"priority"`
}

// Normalize converts a raw payload received from the topic into a Notification.
// Payloads that are not JSON objects are used as the message text
func Normalize(payload []byte, received time.Time) models.Notification {
	result := models.Notification{
		Timestamp: received.UTC(),
		Message:   string(payload),
	}
	var incoming incomingPayload
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &incoming) == nil && incoming.Message != nil {
		result.Message = messageText(incoming.Message)
		result.MessageId = incoming.MessageId
		timestamp, ok := parseTimestamp(incoming.Timestamp)
		if ok {
			result.Timestamp = timestamp
		}
		result.Priority = normalizePriority(incoming.Priority)
	}
	if result.MessageId == "" {
		result.MessageId = uuid.NewString()
	}
	if result.Priority == "" {
		result.Priority = derivePriority(result.Message)
	}
	return result
}

// NewPayload returns the payload that is published for a status message
func NewPayload(message string, now time.Time) models.NotificationPayload {
	return models.NotificationPayload{
		Message:   message,
		MessageId: uuid.NewString(),
		Timestamp: now.UTC().Format(timestampFormat),
	}
}

func messageText(raw json.RawMessage) string {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var compacted bytes.Buffer
	if json.Compact(&compacted, raw) == nil {
		return compacted.String()
	}
	return string(raw)
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if raw == nil {
		return time.Time{}, false
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		parsed, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	}
	var milliseconds int64
	if json.Unmarshal(raw, &milliseconds) == nil && milliseconds > 0 {
		return time.UnixMilli(milliseconds).UTC(), true
	}
	return time.Time{}, false
}

func normalizePriority(priority string) string {
	switch strings.ToLower(priority) {
	case models.PriorityHigh:
		return models.PriorityHigh
	case models.PriorityNormal:
		return models.PriorityNormal
	default:
		return ""
	}
}

func derivePriority(message string) string {
	upper := strings.ToUpper(message)
	for _, indicator := range failureIndicators {
		if strings.Contains(upper, indicator) {
			return models.PriorityHigh
		}
	}
	return models.PriorityNormal
}

func mustMarshal(payload models.NotificationPayload) []byte {
	result, err := json.Marshal(payload)
	helper.Check(err)
	return result
}
