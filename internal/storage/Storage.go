package storage

/**
Common types for the object storage backends
*/

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// LevelProtected stores objects in a folder of the uploading identity. Other users can read,
// but not write them
const LevelProtected = "protected"

// ErrNotConfigured is returned if no object storage credentials have been provided
var ErrNotConfigured = errors.New("no object storage has been configured")

// PutInput contains all information required for storing an object
type PutInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
	// Progress is called with the bytes transferred so far, can be nil
	Progress func(loaded, total int64)
}

// ObjectStore is an object storage backend that files are uploaded to
type ObjectStore interface {
	// Put stores the object and returns its location
	Put(ctx context.Context, input PutInput) (string, error)
	// Exists returns true if an object with the key is stored
	Exists(ctx context.Context, key string) (bool, error)
	// IsValidLogin returns nil if the credentials are valid and the bucket is accessible
	IsValidLogin(ctx context.Context) error
	// Bucket returns the name of the bucket that is used
	Bucket() string
}

// ProtectedKey returns the full object key for the access level protected
func ProtectedKey(identityId, key string) string {
	return LevelProtected + "/" + identityId + "/" + strings.TrimPrefix(key, "/")
}

// ProgressReader counts the bytes read from the underlying reader and reports them
type ProgressReader struct {
	reader   io.Reader
	total    int64
	mutex    sync.Mutex
	loaded   int64
	callback func(loaded, total int64)
}

// NewProgressReader returns a reader that calls callback after every read. If callback is nil,
// the reader is returned unchanged
func NewProgressReader(reader io.Reader, total int64, callback func(loaded, total int64)) io.Reader {
	if callback == nil {
		return reader
	}
	return &ProgressReader{
		reader:   reader,
		total:    total,
		callback: callback,
	}
}

// NewProgressCounter returns a ProgressReader without an underlying reader, progress has to be
// reported with Add
func NewProgressCounter(total int64, callback func(loaded, total int64)) *ProgressReader {
	return &ProgressReader{
		total:    total,
		callback: callback,
	}
}

// Read reads from the underlying reader and reports the progress
func (r *ProgressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.Add(int64(n))
	}
	return n, err
}

// Add increases the transferred bytes and reports the progress. Values are capped at the total size
func (r *ProgressReader) Add(n int64) {
	r.mutex.Lock()
	r.loaded = r.loaded + n
	if r.total > 0 && r.loaded > r.total {
		r.loaded = r.total
	}
	loaded := r.loaded
	r.mutex.Unlock()
	r.callback(loaded, r.total)
}

// Loaded returns the number of bytes transferred
func (r *ProgressReader) Loaded() int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.loaded
}
