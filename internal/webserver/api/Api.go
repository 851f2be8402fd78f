package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/casedrop/casedrop/internal/configuration/database"
	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/logging"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/validation"
	"github.com/casedrop/casedrop/internal/webserver/headers"
	"github.com/casedrop/casedrop/internal/webserver/ratelimiter"
	"github.com/casedrop/casedrop/internal/webserver/sse"
	"github.com/google/uuid"
)

// maxBodySize is the maximum size of a request body in bytes
const maxBodySize = 1024 * 1024

const publishTimeout = 10 * time.Second

// StatusNotifier publishes status changes to the notification topic
type StatusNotifier interface {
	PublishStatus(ctx context.Context, status models.JobStatus) (models.NotificationPayload, error)
}

var apiKey string
var uploadUrl string
var notifier StatusNotifier

// currentTime is used in order to modify the current time for testing purposes in unit tests
var currentTime = func() time.Time {
	return time.Now()
}

// Init sets the API key required for status changes, the URL returned for new cases and
// the notifier for status changes. Empty apikey disables the authentication, nil notifier
// disables publishing
func Init(key, url string, statusNotifier StatusNotifier) {
	apiKey = key
	uploadUrl = url
	notifier = statusNotifier
}

// RegisterRoutes adds all API routes to the mux
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /cases", createCase)
	mux.HandleFunc("GET /cases", listCases)
	mux.HandleFunc("GET /case", listCases)
	mux.HandleFunc("GET /cases/{id}", getCaseStatus)
	mux.HandleFunc("PUT /cases/{id}/status", updateStatus)
	mux.HandleFunc("/", notFound)
}

type createCaseRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type casesList struct {
	Cases []models.CaseApiOutput `json:"cases"`
}

func createCase(w http.ResponseWriter, r *http.Request) {
	if !ratelimiter.IsAllowedNewCase(r) {
		sendError(w, http.StatusTooManyRequests, "Too many requests")
		return
	}
	var request createCaseRequest
	err := decodeBody(r, &request)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	now := currentTime().UTC()
	timestamp := formatTime(now)
	newCase := models.Case{
		CaseId:          uuid.NewString(),
		Title:           request.Title,
		Description:     request.Description,
		Metadata:        request.Metadata,
		CreatedAt:       timestamp,
		UpdatedAt:       timestamp,
		UploadUrl:       uploadUrl,
		Status:          models.JobPending,
		StatusTimestamp: now.UnixMilli(),
	}
	database.SaveCase(newCase)
	logging.LogCaseCreated(newCase, r)
	output, err := newCase.ToApiOutput()
	helper.Check(err)
	sendJson(w, http.StatusCreated, output)
}

func listCases(w http.ResponseWriter, r *http.Request) {
	result := casesList{Cases: make([]models.CaseApiOutput, 0)}
	for _, existingCase := range database.GetAllCases() {
		output, err := existingCase.ToApiOutput()
		helper.Check(err)
		result.Cases = append(result.Cases, output)
	}
	sendJson(w, http.StatusOK, result)
}

func getCaseStatus(w http.ResponseWriter, r *http.Request) {
	existingCase, ok := getCase(w, r)
	if !ok {
		return
	}
	sendJson(w, http.StatusOK, existingCase.ToJobStatus())
}

func updateStatus(w http.ResponseWriter, r *http.Request) {
	if !isAuthorised(w, r) {
		return
	}
	existingCase, ok := getCase(w, r)
	if !ok {
		return
	}
	var request updateStatusRequest
	err := decodeBody(r, &request)
	if err != nil || !models.IsValidJobStatus(request.Status) {
		sendError(w, http.StatusBadRequest, "Invalid status provided")
		return
	}
	now := currentTime().UTC()
	if !database.UpdateCaseStatus(existingCase.CaseId, request.Status, now.UnixMilli(), formatTime(now)) {
		sendNotFound(w, r, existingCase.CaseId)
		return
	}
	status := models.JobStatus{
		Status:    request.Status,
		CaseId:    existingCase.CaseId,
		Timestamp: now.UnixMilli(),
	}
	logging.LogStatusChange(status, r)
	sse.PublishNewStatus(status)
	publishNotification(r.Context(), status)
	sendJson(w, http.StatusOK, status)
}

func publishNotification(ctx context.Context, status models.JobStatus) {
	if notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	_, err := notifier.PublishStatus(ctx, status)
	if err != nil {
		logging.LogWarning("Could not publish status of case " + status.CaseId + ": " + err.Error())
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	sendError(w, http.StatusNotFound, "Not found")
}

// getCase returns the case of the path value id. If the case does not exist, an error is sent
// to the client and failed attempts are rate limited
func getCase(w http.ResponseWriter, r *http.Request) (models.Case, bool) {
	id := r.PathValue("id")
	if validation.ValidateCaseId(id) != nil {
		sendNotFound(w, r, id)
		return models.Case{}, false
	}
	existingCase, ok := database.GetCase(id)
	if !ok {
		sendNotFound(w, r, id)
		return models.Case{}, false
	}
	return existingCase, true
}

func sendNotFound(w http.ResponseWriter, r *http.Request, id string) {
	ratelimiter.WaitOnFailedId(r)
	sendError(w, http.StatusNotFound, "Case with ID "+id+" not found")
}

func isAuthorised(w http.ResponseWriter, r *http.Request) bool {
	if apiKey == "" {
		return true
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get("apikey")), []byte(apiKey)) == 1 {
		return true
	}
	logging.LogInvalidApiKey(r)
	ratelimiter.WaitOnFailedApiKey(r)
	sendError(w, http.StatusUnauthorized, "Unauthorized")
	return false
}

func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	err := decoder.Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, statusCode int, errorMessage string) {
	sendJson(w, statusCode, errorResponse{Error: errorMessage})
}

func sendJson(w http.ResponseWriter, statusCode int, content any) {
	headers.WriteJson(w)
	result, err := json.Marshal(content)
	helper.Check(err)
	w.WriteHeader(statusCode)
	_, _ = w.Write(result)
}
