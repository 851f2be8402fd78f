package cliapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/casedrop/casedrop/internal/models"
)

var apiUrl string
var apiKey string

// ErrUnauthorised is returned if the server rejected the API key
var ErrUnauthorised = errors.New("unauthorised")

// ErrNotConfigured is returned if no status API URL has been set
var ErrNotConfigured = errors.New("no status API URL has been set, please set CASEDROP_STATUS_API_URL")

type header struct {
	Key   string
	Value string
}

// Init sets the URL of the cases API and the key that is sent with status changes
func Init(url, key string) {
	apiUrl = strings.TrimSuffix(url, "/")
	apiKey = key
}

// CreateCase creates a new case on the server
func CreateCase(ctx context.Context, title, description string) (models.CaseApiOutput, error) {
	type request struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Metadata    map[string]string `json:"metadata"`
	}
	body, err := json.Marshal(request{
		Title:       title,
		Description: description,
		Metadata:    map[string]string{"source": "casedrop-cli"},
	})
	if err != nil {
		return models.CaseApiOutput{}, err
	}
	var result models.CaseApiOutput
	err = doRequest(ctx, "POST", "/cases", body, http.StatusCreated, &result)
	return result, err
}

// ListCases returns all cases of the server
func ListCases(ctx context.Context) ([]models.CaseApiOutput, error) {
	var result struct {
		Cases []models.CaseApiOutput `json:"cases"`
	}
	err := doRequest(ctx, "GET", "/cases", nil, http.StatusOK, &result)
	return result.Cases, err
}

func doRequest(ctx context.Context, method, path string, body []byte, expectedStatus int, target any) error {
	if apiUrl == "" {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, apiUrl+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	headers := []header{{Key: "Content-Type", Value: "application/json"}}
	if apiKey != "" {
		headers = append(headers, header{Key: "apikey", Value: apiKey})
	}
	for _, addHeader := range headers {
		req.Header.Set(addHeader.Key, addHeader.Value)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorised
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return err
	}
	if resp.StatusCode != expectedStatus {
		return errors.New("unexpected response: status code " + strconv.Itoa(resp.StatusCode) + ", response: " + string(content))
	}
	return json.Unmarshal(content, target)
}
