package models

const (
	// ProgressInProgress is set while bytes are still being transferred
	ProgressInProgress = "in-progress"
	// ProgressSuccess is set once the transfer reached 100%
	ProgressSuccess = "success"
	// ProgressError is set if the upload failed
	ProgressError = "error"
)

// ProgressRecord holds the upload progress of a single file
type ProgressRecord struct {
	Id         int64  `json:"id"`
	Filename   string `json:"filename"`
	FileType   string `json:"filetype"`
	FileSize   string `json:"filesize"`
	Percentage int    `json:"percentage"`
	Status     string `json:"status"`
}

// IsFinished returns true if the upload succeeded or failed
func (p ProgressRecord) IsFinished() bool {
	return p.Status == ProgressSuccess || p.Status == ProgressError
}
