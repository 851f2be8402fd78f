package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store uploads objects to an S3 compatible bucket with the MinIO client
type Store struct {
	bucket string
	client *minio.Client
}

// New creates a client for the given credentials. The endpoint is required and may contain a scheme
func New(config models.AwsConfig) (*Store, error) {
	if !config.IsAllProvided() || config.Endpoint == "" {
		return nil, storage.ErrNotConfigured
	}
	host, secure, err := parseEndpoint(config.Endpoint)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(config.KeyId, config.KeySecret, ""),
		Secure: secure,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &Store{bucket: config.Bucket, client: client}, nil
}

func parseEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), true, nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	if parsed.Host == "" {
		return "", false, errors.New("invalid endpoint: " + endpoint)
	}
	switch parsed.Scheme {
	case "http":
		return parsed.Host, false, nil
	case "https":
		return parsed.Host, true, nil
	default:
		return "", false, errors.New("unsupported endpoint scheme: " + parsed.Scheme)
	}
}

// Bucket returns the name of the bucket that is used
func (s *Store) Bucket() string {
	return s.bucket
}

// IsValidLogin returns nil if the credentials are valid and the bucket exists
func (s *Store) IsValidLogin(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket %s is not accessible: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

// Put uploads the object and returns its location
func (s *Store) Put(ctx context.Context, input storage.PutInput) (string, error) {
	size := input.Size
	if size <= 0 {
		size = -1
	}
	options := minio.PutObjectOptions{
		ContentType:  input.ContentType,
		UserMetadata: input.Metadata,
	}
	if input.Progress != nil {
		options.Progress = &progressCounter{reader: storage.NewProgressCounter(input.Size, input.Progress)}
	}
	info, err := s.client.PutObject(ctx, s.bucket, input.Key, input.Body, size, options)
	if err != nil {
		return "", fmt.Errorf("upload object error: %w", err)
	}
	if info.Location != "" {
		return info.Location, nil
	}
	return s.client.EndpointURL().String() + "/" + s.bucket + "/" + info.Key, nil
}

// Exists returns true if the object is stored in the bucket
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		response := minio.ToErrorResponse(err)
		if response.StatusCode == http.StatusNotFound || response.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// progressCounter is passed to the MinIO client, which reads the number of uploaded bytes from it
type progressCounter struct {
	reader *storage.ProgressReader
}

// Read is called by the MinIO client with a buffer that has the size of the uploaded bytes
func (p *progressCounter) Read(b []byte) (int, error) {
	p.reader.Add(int64(len(b)))
	return len(b), nil
}
