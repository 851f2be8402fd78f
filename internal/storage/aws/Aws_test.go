package aws

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/storage"
	"github.com/casedrop/casedrop/internal/test"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

var testConfig = models.AwsConfig{
	Bucket:    "casedrop-test",
	Region:    "mock-region-1",
	KeyId:     "accId",
	KeySecret: "accKey",
}

func TestMain(m *testing.M) {
	ts := startMockServer()
	testConfig.Endpoint = ts.URL
	exitVal := m.Run()
	ts.Close()
	os.Exit(exitVal)
}

func startMockServer() *httptest.Server {
	backend := s3mem.New()
	_ = backend.CreateBucket("casedrop-test")
	faker := gofakes3.New(backend)
	return httptest.NewServer(faker.Server())
}

func TestNew(t *testing.T) {
	_, err := New(models.AwsConfig{Bucket: "test"})
	test.IsEqualBool(t, errors.Is(err, storage.ErrNotConfigured), true)
	store, err := New(testConfig)
	test.IsNil(t, err)
	test.IsEqualString(t, store.Bucket(), "casedrop-test")
}

func TestIsValidLogin(t *testing.T) {
	store, err := New(testConfig)
	test.IsNil(t, err)
	test.IsNil(t, store.IsValidLogin(context.Background()))

	invalidBucket := testConfig
	invalidBucket.Bucket = "invalid"
	store, err = New(invalidBucket)
	test.IsNil(t, err)
	test.IsNotNil(t, store.IsValidLogin(context.Background()))
}

func TestPut(t *testing.T) {
	store, err := New(testConfig)
	test.IsNil(t, err)
	content := "testfile-content"
	var lastLoaded, lastTotal int64
	location, err := store.Put(context.Background(), storage.PutInput{
		Key:         "protected/sub/data/case-1/test.txt",
		Body:        strings.NewReader(content),
		Size:        int64(len(content)),
		ContentType: "text/plain",
		Metadata:    map[string]string{"caseid": "case-1"},
		Progress: func(loaded, total int64) {
			lastLoaded = loaded
			lastTotal = total
		},
	})
	test.IsNil(t, err)
	test.IsNotEmpty(t, location)
	test.IsEqualInt64(t, lastLoaded, int64(len(content)))
	test.IsEqualInt64(t, lastTotal, int64(len(content)))

	exists, err := store.Exists(context.Background(), "protected/sub/data/case-1/test.txt")
	test.IsNil(t, err)
	test.IsEqualBool(t, exists, true)

	metadata, err := store.GetMetadata(context.Background(), "protected/sub/data/case-1/test.txt")
	test.IsNil(t, err)
	test.IsEqualBool(t, len(metadata) > 0, true)

	// Without a progress function
	_, err = store.Put(context.Background(), storage.PutInput{
		Key:  "protected/sub/data/case-1/empty.txt",
		Body: bytes.NewReader(nil),
	})
	test.IsNil(t, err)
}

func TestExists(t *testing.T) {
	store, err := New(testConfig)
	test.IsNil(t, err)
	exists, err := store.Exists(context.Background(), "invalid")
	test.IsNil(t, err)
	test.IsEqualBool(t, exists, false)
}

func TestPutCancelled(t *testing.T) {
	store, err := New(testConfig)
	test.IsNil(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, storage.PutInput{
		Key:  "cancelled.txt",
		Body: strings.NewReader("content"),
		Size: 7,
	})
	test.IsNotNil(t, err)
}
