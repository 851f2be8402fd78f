package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/casedrop/casedrop/internal/validation"
)

// ErrIndexNotResolved is returned if the index of a candidate does not point to a selected file
var ErrIndexNotResolved = errors.New("upload candidate does not resolve to a selected file")

var knownExtensions = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".txt":  "text/plain",
}

// Selection holds the files that are about to be uploaded
type Selection struct {
	mutex sync.RWMutex
	// files is the full selection, candidates may reference a subset after dismissing
	files      []models.UploadCandidate
	candidates []models.UploadCandidate
}

// NewSelection returns an empty selection
func NewSelection() *Selection {
	return &Selection{}
}

// Select reads the file information of all paths and replaces the current selection.
// If a single file is invalid, the previous selection is kept and all validation errors
// are returned
func (s *Selection) Select(paths []string) error {
	files := make([]models.UploadCandidate, 0, len(paths))
	for i, path := range paths {
		file, err := readCandidate(path, i)
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	err := validation.ValidateFiles(files)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.files = files
	s.candidates = make([]models.UploadCandidate, len(files))
	copy(s.candidates, files)
	s.mutex.Unlock()
	return nil
}

// Dismiss removes the candidate at the given position of the candidate list.
// Invalid positions are ignored
func (s *Selection) Dismiss(position int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if position < 0 || position >= len(s.candidates) {
		return
	}
	s.candidates = append(s.candidates[:position:position], s.candidates[position+1:]...)
}

// Candidates returns a copy of all files that are currently selected for upload
func (s *Selection) Candidates() []models.UploadCandidate {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	result := make([]models.UploadCandidate, len(s.candidates))
	copy(result, s.candidates)
	return result
}

// Len returns the number of candidates
func (s *Selection) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.candidates)
}

// Resolve returns the selected file that the candidate references by its index
func (s *Selection) Resolve(candidate models.UploadCandidate) (models.UploadCandidate, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if candidate.Index < 0 || candidate.Index >= len(s.files) {
		return models.UploadCandidate{}, ErrIndexNotResolved
	}
	return s.files[candidate.Index], nil
}

// Clear removes all candidates
func (s *Selection) Clear() {
	s.mutex.Lock()
	s.candidates = nil
	s.files = nil
	s.mutex.Unlock()
}

func readCandidate(path string, index int) (models.UploadCandidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.UploadCandidate{}, err
	}
	if info.IsDir() {
		return models.UploadCandidate{}, errors.New(path + " is a directory")
	}
	contentType, err := detectContentType(path)
	if err != nil {
		return models.UploadCandidate{}, err
	}
	return models.UploadCandidate{
		Index: index,
		Name:  filepath.Base(path),
		Size:  info.Size(),
		Type:  contentType,
		Path:  path,
	}, nil
}

func detectContentType(path string) (string, error) {
	extension := strings.ToLower(filepath.Ext(path))
	if contentType, ok := knownExtensions[extension]; ok {
		return contentType, nil
	}
	if contentType := mime.TypeByExtension(extension); contentType != "" {
		return stripParameters(contentType), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return stripParameters(http.DetectContentType(buffer[:n])), nil
}

func stripParameters(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mediaType
}
