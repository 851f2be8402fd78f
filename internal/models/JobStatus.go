package models

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	// JobSucceeded is the terminal status of a successful job
	JobSucceeded = "SUCCEEDED"
	// JobFailed is the terminal status of a failed job
	JobFailed = "FAILED"
	// JobRunning is set while a job is being processed
	JobRunning = "RUNNING"
	// JobPending is the status of a newly created case
	JobPending = "PENDING"
	// JobTimedOut is set if the job did not finish in time
	JobTimedOut = "TIMED_OUT"
	// JobAborted is set if the job was stopped manually
	JobAborted = "ABORTED"
)

var validJobStatus = []string{JobSucceeded, JobFailed, JobRunning, JobPending, JobTimedOut, JobAborted}

// IsValidJobStatus returns true if status is a known job status
func IsValidJobStatus(status string) bool {
	for _, valid := range validJobStatus {
		if status == valid {
			return true
		}
	}
	return false
}

// JobStatus is the processing status of a case
type JobStatus struct {
	Status string `json:"status"`
	CaseId string `json:"caseId"`
	// Timestamp is the time of the last update in milliseconds since epoch
	Timestamp int64 `json:"timestamp"`
}

// IsTerminal returns true if the job will not change its status anymore
func (j JobStatus) IsTerminal() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}

// LastUpdated returns the timestamp as time.Time
func (j JobStatus) LastUpdated() time.Time {
	return time.UnixMilli(j.Timestamp)
}

// UnmarshalJSON accepts the timestamp either as number or as string
func (j *JobStatus) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status    string          `json:"status"`
		CaseId    string          `json:"caseId"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	j.Status = raw.Status
	j.CaseId = raw.CaseId
	j.Timestamp = 0
	if len(raw.Timestamp) == 0 || string(raw.Timestamp) == "null" {
		return nil
	}
	var number json.Number
	err = json.Unmarshal(raw.Timestamp, &number)
	if err != nil {
		var text string
		err = json.Unmarshal(raw.Timestamp, &text)
		if err != nil {
			return err
		}
		number = json.Number(text)
	}
	j.Timestamp, err = strconv.ParseInt(number.String(), 10, 64)
	return err
}
