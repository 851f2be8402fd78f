package jobstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/validation"
)

// DefaultInterval is the time between two requests
const DefaultInterval = 5 * time.Second

// ErrFetchFailed is wrapped by the error returned if the status could not be retrieved
var ErrFetchFailed = errors.New("Failed to fetch job status")

const (
	// IndicatorSuccess is shown for succeeded jobs
	IndicatorSuccess = "success"
	// IndicatorError is shown for failed jobs
	IndicatorError = "error"
	// IndicatorInProgress is shown for all other jobs
	IndicatorInProgress = "in-progress"
)

// Poller requests the job status of a case from the status API until the job has finished
type Poller struct {
	baseUrl  string
	interval time.Duration
	client   *http.Client
}

// NewPoller returns a Poller for the API at baseUrl. An interval of 0 uses DefaultInterval
func NewPoller(baseUrl string, interval time.Duration, client *http.Client) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Poller{
		baseUrl:  strings.TrimSuffix(baseUrl, "/"),
		interval: interval,
		client:   client,
	}
}

// Indicator returns the display type for a job status
func Indicator(status string) string {
	switch status {
	case models.JobSucceeded:
		return IndicatorSuccess
	case models.JobFailed:
		return IndicatorError
	default:
		return IndicatorInProgress
	}
}

// Poll requests the status and calls onUpdate with every received record. Returns the last
// record after the job has reached a terminal status. Polling stops on the first error
func (p *Poller) Poll(ctx context.Context, caseId string, onUpdate func(status models.JobStatus)) (models.JobStatus, error) {
	err := validation.ValidateCaseId(caseId)
	if err != nil {
		return models.JobStatus{}, err
	}
	for {
		status, err := p.Fetch(ctx, caseId)
		if err != nil {
			return models.JobStatus{}, err
		}
		if onUpdate != nil {
			onUpdate(status)
		}
		if status.IsTerminal() {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// Fetch requests the current status once
func (p *Poller) Fetch(ctx context.Context, caseId string) (models.JobStatus, error) {
	requestUrl := p.baseUrl + "/cases/" + url.PathEscape(caseId)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return models.JobStatus{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return models.JobStatus{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.JobStatus{}, fmt.Errorf("%w: server returned status %d", ErrFetchFailed, resp.StatusCode)
	}
	var result models.JobStatus
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return models.JobStatus{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return result, nil
}
