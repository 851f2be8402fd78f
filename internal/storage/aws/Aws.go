package aws

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/storage"
)

// Store uploads objects to an S3 bucket with the AWS SDK
type Store struct {
	config  models.AwsConfig
	session *session.Session
}

// New creates a session for the given credentials
func New(config models.AwsConfig) (*Store, error) {
	if !config.IsAllProvided() {
		return nil, storage.ErrNotConfigured
	}
	sess, err := createSession(config)
	if err != nil {
		return nil, err
	}
	return &Store{config: config, session: sess}, nil
}

func createSession(config models.AwsConfig) (*session.Session, error) {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(config.KeyId, config.KeySecret, ""),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if config.Endpoint != "" {
		s3Config.Endpoint = aws.String(config.Endpoint)
	}
	return session.NewSession(s3Config)
}

// Bucket returns the name of the bucket that is used
func (s *Store) Bucket() string {
	return s.config.Bucket
}

// IsValidLogin returns nil if the credentials are valid and the bucket is accessible
func (s *Store) IsValidLogin(ctx context.Context) error {
	svc := s3.New(s.session)
	_, err := svc.Config.Credentials.Get()
	if err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}
	_, err = svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s is not accessible: %w", s.config.Bucket, err)
	}
	return nil
}

// Put uploads the object with a multipart upload if required and returns the location
func (s *Store) Put(ctx context.Context, input storage.PutInput) (string, error) {
	uploader := s3manager.NewUploader(s.session)

	uploadInput := &s3manager.UploadInput{
		Bucket:   aws.String(s.config.Bucket),
		Key:      aws.String(input.Key),
		Body:     storage.NewProgressReader(input.Body, input.Size, input.Progress),
		Metadata: aws.StringMap(input.Metadata),
	}
	if input.ContentType != "" {
		uploadInput.ContentType = aws.String(input.ContentType)
	}
	result, err := uploader.UploadWithContext(ctx, uploadInput)
	if err != nil {
		return "", err
	}
	return result.Location, nil
}

// Exists returns true if the object is stored in S3
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	svc := s3.New(s.session)
	_, err := svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.RequestFailure
		if errors.As(err, &aerr) && aerr.StatusCode() == http.StatusNotFound {
			return false, nil
		}
		var bErr awserr.Error
		if errors.As(err, &bErr) && (bErr.Code() == "NotFound" || bErr.Code() == s3.ErrCodeNoSuchKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetMetadata returns the user metadata of the object
func (s *Store) GetMetadata(ctx context.Context, key string) (map[string]string, error) {
	svc := s3.New(s.session)
	result, err := svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return aws.StringValueMap(result.Metadata), nil
}
