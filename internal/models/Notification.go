package models

import "time"

const (
	// PriorityHigh is used for notifications that report a failure
	PriorityHigh = "high"
	// PriorityNormal is used for all other notifications
	PriorityNormal = "normal"
)

// Notification is a status message received from the pub/sub topic
type Notification struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority"`
	MessageId string    `json:"messageId"`
}

// NotificationPayload is the format that is published to and received from the topic
type NotificationPayload struct {
	Message   string `json:"message"`
	MessageId string `json:"messageId"`
	Timestamp string `json:"timestamp"`
	Priority  string `json:"priority,omitempty"`
}
