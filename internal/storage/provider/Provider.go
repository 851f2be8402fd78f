package provider

import (
	"github.com/casedrop/casedrop/internal/environment"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/storage"
	"github.com/casedrop/casedrop/internal/storage/aws"
	"github.com/casedrop/casedrop/internal/storage/minio"
)

// Get returns the object storage backend that has been selected with CASEDROP_STORAGE_BACKEND
func Get(backend string, config models.AwsConfig) (storage.ObjectStore, error) {
	if !config.IsAllProvided() {
		return nil, storage.ErrNotConfigured
	}
	switch backend {
	case environment.StorageMinio:
		return minio.New(config)
	default:
		return aws.New(config)
	}
}
