package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/storage"
	"github.com/casedrop/casedrop/internal/test"
	"github.com/casedrop/casedrop/internal/validation"
)

type fakeStore struct {
	mutex   sync.Mutex
	objects map[string][]byte
	inputs  map[string]storage.PutInput
	failFor string
	block   chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string][]byte),
		inputs:  make(map[string]storage.PutInput),
	}
}

func (s *fakeStore) Put(ctx context.Context, input storage.PutInput) (string, error) {
	if s.block != nil {
		<-s.block
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if s.failFor != "" && strings.HasSuffix(input.Key, s.failFor) {
		return "", errors.New("access denied")
	}
	content, err := io.ReadAll(storage.NewProgressReader(input.Body, input.Size, input.Progress))
	if err != nil {
		return "", err
	}
	s.mutex.Lock()
	s.objects[input.Key] = content
	s.inputs[input.Key] = input
	s.mutex.Unlock()
	return "https://bucket.example/" + input.Key, nil
}

func (s *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) IsValidLogin(ctx context.Context) error {
	return nil
}

func (s *fakeStore) Bucket() string {
	return "bucket"
}

type fakeUsers struct {
	err error
}

func (u fakeUsers) CurrentUser(ctx context.Context) (models.UserInfo, error) {
	if u.err != nil {
		return models.UserInfo{}, u.err
	}
	return models.UserInfo{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Sub:      "eu-west-1:1234",
	}, nil
}

func newTestCoordinator(t *testing.T, store *fakeStore, users UserProvider) (*Coordinator, *Selection, *Tracker) {
	selection := NewSelection()
	err := selection.Select([]string{"test/report.pdf", "test/notes.txt"})
	test.IsNil(t, err)
	tracker := NewTracker()
	return NewCoordinator(selection, tracker, store, users, Options{MaxParallel: 2}), selection, tracker
}

func TestUpload(t *testing.T) {
	currentTime = func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)
	}
	defer func() { currentTime = time.Now }()

	store := newFakeStore()
	coordinator, selection, tracker := newTestCoordinator(t, store, fakeUsers{})
	result, err := coordinator.Upload(context.Background(), "case_1-a")
	test.IsNil(t, err)
	test.IsEqualString(t, result.CaseId, "case_1-a")
	test.IsEqualInt(t, len(result.Files), 2)
	test.IsEqualString(t, result.Files[0].Key, "protected/eu-west-1:1234/data/case_1-a/report.pdf")
	test.IsEqualString(t, result.Files[1].Key, "protected/eu-west-1:1234/data/case_1-a/notes.txt")
	test.IsEqualString(t, result.Files[0].Location, "https://bucket.example/protected/eu-west-1:1234/data/case_1-a/report.pdf")
	test.IsEqualString(t, result.Summary(), "Successfully uploaded 2 file(s) for case case_1-a")
	test.IsEqualInt(t, selection.Len(), 0)
	test.IsEqualBool(t, coordinator.IsUploading(), false)

	test.IsEqualString(t, string(store.objects[result.Files[1].Key]), "some notes")
	input := store.inputs[result.Files[0].Key]
	test.IsEqualString(t, input.ContentType, "application/pdf")
	test.IsEqualString(t, input.Metadata["userid"], "eu-west-1:1234")
	test.IsEqualString(t, input.Metadata["username"], "jdoe")
	test.IsEqualString(t, input.Metadata["useremail"], "jdoe@example.com")
	test.IsEqualString(t, input.Metadata["caseid"], "case_1-a")
	test.IsEqualString(t, input.Metadata["uploaddate"], "2024-03-01T12:30:45.123Z")
	test.IsEqualString(t, input.Metadata["filename"], "report.pdf")
	test.IsEqualString(t, input.Metadata["filetype"], "application/pdf")
	test.IsEqualString(t, input.Metadata["filesize"], "15")

	records := tracker.List()
	test.IsEqualInt(t, len(records), 2)
	for _, record := range records {
		test.IsEqualInt(t, record.Percentage, 100)
		test.IsEqualString(t, record.Status, models.ProgressSuccess)
	}
}

func TestUploadErrors(t *testing.T) {
	store := newFakeStore()
	coordinator, selection, _ := newTestCoordinator(t, store, fakeUsers{})

	_, err := coordinator.Upload(context.Background(), "invalid case")
	test.IsEqualBool(t, errors.Is(err, validation.ErrInvalidCaseId), true)
	_, err = coordinator.Upload(context.Background(), "")
	test.IsEqualBool(t, errors.Is(err, validation.ErrInvalidCaseId), true)

	selection.Clear()
	_, err = coordinator.Upload(context.Background(), "invalid case")
	test.IsEqualBool(t, errors.Is(err, ErrNoFilesSelected), true)
	test.IsEqualString(t, err.Error(), "You must select the files that you want to upload.")

	authErr := errors.New("token expired")
	coordinator, _, _ = newTestCoordinator(t, store, fakeUsers{err: authErr})
	_, err = coordinator.Upload(context.Background(), "case1")
	test.IsEqualString(t, err.Error(), "Unable to get user information.")
	test.IsEqualBool(t, errors.Is(err, ErrUserInfo), true)
	test.IsEqualBool(t, errors.Is(err, authErr), true)
	test.IsEqualBool(t, errors.Is(Cause(err), authErr), true)
	test.IsEqualBool(t, Cause(ErrNoFilesSelected) == ErrNoFilesSelected, true)
	test.IsEqualInt(t, len(store.objects), 0)
}

func TestUploadFailed(t *testing.T) {
	store := newFakeStore()
	store.failFor = "notes.txt"
	coordinator, selection, tracker := newTestCoordinator(t, store, fakeUsers{})
	_, err := coordinator.Upload(context.Background(), "case1")
	test.IsNotNil(t, err)
	test.IsEqualString(t, err.Error(), "An error occurred while uploading files. Please try again.")
	test.IsEqualBool(t, errors.Is(err, ErrUploadFailed), true)
	test.ContainsString(t, Cause(err).Error(), "access denied")
	test.IsEqualInt(t, selection.Len(), 2)

	var failed int
	for _, record := range tracker.List() {
		if record.Status == models.ProgressError {
			failed++
			test.IsEqualString(t, record.Filename, "notes.txt")
		}
	}
	test.IsEqualInt(t, failed, 1)

	store.failFor = ""
	_, err = coordinator.Upload(context.Background(), "case1")
	test.IsNil(t, err)
	test.IsEqualInt(t, len(tracker.List()), 4)
}

func TestUploadFailedKeepsOtherFiles(t *testing.T) {
	store := newFakeStore()
	store.failFor = "report.pdf"
	selection := NewSelection()
	err := selection.Select([]string{"test/report.pdf", "test/notes.txt"})
	test.IsNil(t, err)
	tracker := NewTracker()
	coordinator := NewCoordinator(selection, tracker, store, fakeUsers{}, Options{MaxParallel: 1})
	_, err = coordinator.Upload(context.Background(), "case1")
	test.IsEqualBool(t, errors.Is(err, ErrUploadFailed), true)
	test.IsEqualString(t, string(store.objects["protected/eu-west-1:1234/data/case1/notes.txt"]), "some notes")
	_, ok := store.objects["protected/eu-west-1:1234/data/case1/report.pdf"]
	test.IsEqualBool(t, ok, false)

	records := tracker.List()
	test.IsEqualInt(t, len(records), 2)
	test.IsEqualString(t, records[0].Status, models.ProgressError)
	test.IsEqualString(t, records[1].Status, models.ProgressSuccess)
	test.IsEqualInt(t, selection.Len(), 2)
}

func TestUploadInProgress(t *testing.T) {
	store := newFakeStore()
	store.block = make(chan struct{})
	coordinator, _, _ := newTestCoordinator(t, store, fakeUsers{})

	done := make(chan error)
	go func() {
		_, err := coordinator.Upload(context.Background(), "case1")
		done <- err
	}()
	for !coordinator.IsUploading() {
		time.Sleep(time.Millisecond)
	}
	_, err := coordinator.Upload(context.Background(), "case1")
	test.IsEqualBool(t, errors.Is(err, ErrUploadInProgress), true)
	close(store.block)
	test.IsNil(t, <-done)
	test.IsEqualBool(t, coordinator.IsUploading(), false)
}

func TestUploadRateLimit(t *testing.T) {
	store := newFakeStore()
	selection := NewSelection()
	err := selection.Select([]string{"test/notes.txt"})
	test.IsNil(t, err)
	coordinator := NewCoordinator(selection, NewTracker(), store, fakeUsers{}, Options{MaxParallel: 0, RateLimit: 1024})
	test.IsEqualInt(t, coordinator.options.MaxParallel, 1)
	result, err := coordinator.Upload(context.Background(), "case1")
	test.IsNil(t, err)
	test.IsEqualString(t, string(store.objects[result.Files[0].Key]), "some notes")
}
