package models

import "github.com/casedrop/casedrop/internal/helper"

// UploadCandidate is a file that has been selected for uploading, but not uploaded yet
type UploadCandidate struct {
	// Index is the position of the file in the original selection
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	// Type is the MIME type of the file
	Type string `json:"type"`
	// Path is the location of the file on the local file system
	Path string `json:"path"`
}

// FormattedSize returns the size in a human-readable format
func (c UploadCandidate) FormattedSize() string {
	return helper.FormatBytesDefault(c.Size)
}
