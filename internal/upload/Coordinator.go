package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/casedrop/casedrop/internal/logging"
	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/storage"
	"github.com/casedrop/casedrop/internal/validation"
	"github.com/juju/ratelimit"
	"golang.org/x/sync/errgroup"
)

// ErrNoFilesSelected is returned if Upload is called without any candidates
var ErrNoFilesSelected = errors.New("You must select the files that you want to upload.")

// ErrUserInfo is wrapped by the error returned if the current user could not be determined
var ErrUserInfo = errors.New("Unable to get user information.")

// ErrUploadFailed is wrapped by the error returned if at least one file could not be uploaded
var ErrUploadFailed = errors.New("An error occurred while uploading files. Please try again.")

// ErrUploadInProgress is returned if Upload is called while another upload is running
var ErrUploadInProgress = errors.New("an upload is already in progress")

// UserProvider returns the attributes of the signed-in user
type UserProvider interface {
	CurrentUser(ctx context.Context) (models.UserInfo, error)
}

// Options configure the behaviour of the Coordinator
type Options struct {
	// MaxParallel is the number of files that are uploaded at the same time
	MaxParallel int
	// RateLimit is the maximum bytes per second for each upload, 0 for unlimited
	RateLimit int64
}

// Result contains the keys of all uploaded files
type Result struct {
	CaseId string
	Files  []UploadedFile
}

// UploadedFile is a file that has been stored successfully
type UploadedFile struct {
	ProgressId int64
	Name       string
	Key        string
	Location   string
}

// Summary returns a human-readable summary of the upload
func (r Result) Summary() string {
	return fmt.Sprintf("Successfully uploaded %d file(s) for case %s", len(r.Files), r.CaseId)
}

// Coordinator uploads all selected files to the object storage
type Coordinator struct {
	selection *Selection
	tracker   *Tracker
	store     storage.ObjectStore
	users     UserProvider
	options   Options
	uploading atomic.Bool
}

// causeError keeps the generic message for the user, while still exposing the cause
type causeError struct {
	kind  error
	cause error
}

func (e causeError) Error() string {
	return e.kind.Error()
}

func (e causeError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Cause returns the underlying error of err, if err was returned by Upload
func Cause(err error) error {
	var ce causeError
	if errors.As(err, &ce) {
		return ce.cause
	}
	return err
}

// NewCoordinator returns a new Coordinator
func NewCoordinator(selection *Selection, tracker *Tracker, store storage.ObjectStore, users UserProvider, options Options) *Coordinator {
	if options.MaxParallel < 1 {
		options.MaxParallel = 1
	}
	return &Coordinator{
		selection: selection,
		tracker:   tracker,
		store:     store,
		users:     users,
		options:   options,
	}
}

// IsUploading returns true while an upload is running
func (c *Coordinator) IsUploading() bool {
	return c.uploading.Load()
}

// Upload stores all candidates of the selection for the given case. On success the selection
// is cleared, otherwise it is kept so the upload can be retried
func (c *Coordinator) Upload(ctx context.Context, caseId string) (Result, error) {
	if !c.uploading.CompareAndSwap(false, true) {
		return Result{}, ErrUploadInProgress
	}
	defer c.uploading.Store(false)

	candidates := c.selection.Candidates()
	if len(candidates) == 0 {
		return Result{}, ErrNoFilesSelected
	}
	err := validation.ValidateCaseId(caseId)
	if err != nil {
		return Result{}, err
	}
	user, err := c.users.CurrentUser(ctx)
	if err != nil {
		return Result{}, causeError{kind: ErrUserInfo, cause: err}
	}
	logging.LogUploadStarted(caseId, len(candidates), user)

	uploadDate := currentTime().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	result := Result{CaseId: caseId, Files: make([]UploadedFile, len(candidates))}
	var resultMutex sync.Mutex

	// A failed file does not cancel the others, so every healthy file is stored
	var group errgroup.Group
	group.SetLimit(c.options.MaxParallel)
	for i, candidate := range candidates {
		file, err := c.selection.Resolve(candidate)
		if err != nil {
			_ = group.Wait()
			return Result{}, causeError{kind: ErrUploadFailed, cause: err}
		}
		group.Go(func() error {
			uploaded, err := c.uploadFile(ctx, file, caseId, user, uploadDate)
			if err != nil {
				logging.LogUploadFailed(file, err)
				return err
			}
			resultMutex.Lock()
			result.Files[i] = uploaded
			resultMutex.Unlock()
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return Result{}, causeError{kind: ErrUploadFailed, cause: err}
	}
	c.selection.Clear()
	return result, nil
}

func (c *Coordinator) uploadFile(ctx context.Context, file models.UploadCandidate, caseId string, user models.UserInfo, uploadDate string) (UploadedFile, error) {
	id, progress := c.tracker.Start(file)
	key := storage.ProtectedKey(user.Sub, "data/"+caseId+"/"+file.Name)

	f, err := os.Open(file.Path)
	if err != nil {
		c.tracker.Fail(id)
		return UploadedFile{}, err
	}
	defer f.Close()

	var body io.Reader = f
	if c.options.RateLimit > 0 {
		bucket := ratelimit.NewBucketWithRate(float64(c.options.RateLimit), c.options.RateLimit)
		body = ratelimit.Reader(f, bucket)
	}

	location, err := c.store.Put(ctx, storage.PutInput{
		Key:         key,
		Body:        body,
		Size:        file.Size,
		ContentType: file.Type,
		Metadata:    createMetadata(file, caseId, user, uploadDate),
		Progress:    progress,
	})
	if err != nil {
		c.tracker.Fail(id)
		return UploadedFile{}, fmt.Errorf("uploading %s: %w", file.Name, err)
	}
	progress(file.Size, file.Size)
	logging.LogUpload(file, key)
	return UploadedFile{
		ProgressId: id,
		Name:       file.Name,
		Key:        key,
		Location:   location,
	}, nil
}

func createMetadata(file models.UploadCandidate, caseId string, user models.UserInfo, uploadDate string) map[string]string {
	return map[string]string{
		"userid":     user.Sub,
		"username":   user.Username,
		"useremail":  user.Email,
		"caseid":     caseId,
		"uploaddate": uploadDate,
		"filename":   file.Name,
		"filetype":   file.Type,
		"filesize":   strconv.FormatInt(file.Size, 10),
	}
}
