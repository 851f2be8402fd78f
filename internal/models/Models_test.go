package models

import (
	"encoding/json"
	"testing"

	"github.com/casedrop/casedrop/internal/test"
)

func TestJobStatusUnmarshal(t *testing.T) {
	var status JobStatus
	err := json.Unmarshal([]byte(`{"status":"RUNNING","caseId":"case-1","timestamp":"1700000000000"}`), &status)
	test.IsNil(t, err)
	test.IsEqualString(t, status.Status, JobRunning)
	test.IsEqualString(t, status.CaseId, "case-1")
	test.IsEqualInt64(t, status.Timestamp, 1700000000000)

	err = json.Unmarshal([]byte(`{"status":"SUCCEEDED","caseId":"case-1","timestamp":1700000000001}`), &status)
	test.IsNil(t, err)
	test.IsEqualInt64(t, status.Timestamp, 1700000000001)
	test.IsEqualBool(t, status.IsTerminal(), true)

	err = json.Unmarshal([]byte(`{"status":"FAILED","caseId":"case-1"}`), &status)
	test.IsNil(t, err)
	test.IsEqualInt64(t, status.Timestamp, 0)
	test.IsEqualBool(t, status.IsTerminal(), true)

	err = json.Unmarshal([]byte(`{"status":"RUNNING","timestamp":"invalid"}`), &status)
	test.IsNotNil(t, err)
	err = json.Unmarshal([]byte(`{"status":"RUNNING","timestamp":true}`), &status)
	test.IsNotNil(t, err)
}

func TestJobStatusTerminal(t *testing.T) {
	test.IsEqualBool(t, JobStatus{Status: JobRunning}.IsTerminal(), false)
	test.IsEqualBool(t, JobStatus{Status: JobPending}.IsTerminal(), false)
	test.IsEqualBool(t, JobStatus{Status: JobSucceeded}.IsTerminal(), true)
	test.IsEqualBool(t, JobStatus{Status: JobFailed}.IsTerminal(), true)
	test.IsEqualInt64(t, JobStatus{Timestamp: 1500}.LastUpdated().UnixMilli(), 1500)
}

func TestCaseToApiOutput(t *testing.T) {
	c := Case{
		CaseId:          "id",
		Title:           "title",
		Metadata:        map[string]string{"key": "value"},
		Status:          JobPending,
		StatusTimestamp: 42,
	}
	output, err := c.ToApiOutput()
	test.IsNil(t, err)
	test.IsEqualString(t, output.CaseId, "id")
	test.IsEqualString(t, output.Title, "title")
	test.IsEqualString(t, output.Metadata["key"], "value")
	output.Metadata["key"] = "changed"
	test.IsEqualString(t, c.Metadata["key"], "value")

	c.Metadata = nil
	output, err = c.ToApiOutput()
	test.IsNil(t, err)
	test.IsEqualInt(t, len(output.Metadata), 0)
	test.IsEqualBool(t, output.Metadata != nil, true)

	status := c.ToJobStatus()
	test.IsEqualString(t, status.CaseId, "id")
	test.IsEqualString(t, status.Status, JobPending)
	test.IsEqualInt64(t, status.Timestamp, 42)
}

func TestUploadCandidate(t *testing.T) {
	candidate := UploadCandidate{Size: 1536}
	test.IsEqualString(t, candidate.FormattedSize(), "1.5 KB")
}

func TestProgressRecord(t *testing.T) {
	test.IsEqualBool(t, ProgressRecord{Status: ProgressInProgress}.IsFinished(), false)
	test.IsEqualBool(t, ProgressRecord{Status: ProgressSuccess}.IsFinished(), true)
	test.IsEqualBool(t, ProgressRecord{Status: ProgressError}.IsFinished(), true)
}

func TestConfigs(t *testing.T) {
	aws := AwsConfig{Bucket: "b", Region: "r", KeyId: "k"}
	test.IsEqualBool(t, aws.IsAllProvided(), false)
	aws.KeySecret = "s"
	test.IsEqualBool(t, aws.IsAllProvided(), true)
	broker := BrokerConfig{}
	test.IsEqualBool(t, broker.IsProvided(), false)
	broker.Url = "tcp://localhost:1883"
	test.IsEqualBool(t, broker.IsProvided(), true)
	test.IsEqualBool(t, UserInfo{}.IsValid(), false)
	test.IsEqualBool(t, UserInfo{Sub: "123"}.IsValid(), true)
}

func TestIsValidJobStatus(t *testing.T) {
	test.IsEqualBool(t, IsValidJobStatus(JobRunning), true)
	test.IsEqualBool(t, IsValidJobStatus(JobTimedOut), true)
	test.IsEqualBool(t, IsValidJobStatus("running"), false)
	test.IsEqualBool(t, IsValidJobStatus(""), false)
	test.IsEqualBool(t, JobStatus{Status: JobAborted}.IsTerminal(), false)
}
