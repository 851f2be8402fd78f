package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
)

// MaxFileSize is the maximum size of a single file in bytes (100MB)
const MaxFileSize = 100 * 1024 * 1024

// AllowedFileTypes contains the MIME types that may be uploaded
var AllowedFileTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"text/plain",
}

var caseIdRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrInvalidCaseId is returned if the case ID contains invalid characters or is empty
var ErrInvalidCaseId = errors.New("Case ID can only contain letters, numbers, hyphens, and underscores")

// ErrFileTooLarge is wrapped by the error returned for files exceeding MaxFileSize
var ErrFileTooLarge = errors.New("file too large")

// ErrFileTypeNotAllowed is wrapped by the error returned for files with a type not in AllowedFileTypes
var ErrFileTypeNotAllowed = errors.New("file type not allowed")

type fileError struct {
	message string
	reason  error
}

func (e fileError) Error() string {
	return e.message
}

func (e fileError) Unwrap() error {
	return e.reason
}

// ValidateFile returns an error if the file is too large or has a type that is not allowed
func ValidateFile(file models.UploadCandidate) error {
	if file.Size > MaxFileSize {
		return fileError{
			message: fmt.Sprintf("File %s is too large. Maximum size is %s", file.Name, helper.FormatBytesDefault(MaxFileSize)),
			reason:  ErrFileTooLarge,
		}
	}
	if !helper.IsInArray(AllowedFileTypes, file.Type) {
		return fileError{
			message: fmt.Sprintf("File type %s is not allowed", file.Type),
			reason:  ErrFileTypeNotAllowed,
		}
	}
	return nil
}

// ValidateFiles validates all files and returns the joined messages of all failed validations
func ValidateFiles(files []models.UploadCandidate) error {
	var messages []string
	var firstErr error
	for _, file := range files {
		err := ValidateFile(file)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			messages = append(messages, err.Error())
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return fileError{
		message: strings.Join(messages, "\n"),
		reason:  errors.Unwrap(firstErr),
	}
}

// ValidateCaseId returns ErrInvalidCaseId if the ID is not a valid case ID
func ValidateCaseId(caseId string) error {
	if !caseIdRegex.MatchString(caseId) {
		return ErrInvalidCaseId
	}
	return nil
}
