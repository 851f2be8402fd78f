package models

import "github.com/jinzhu/copier"

// Case is a collection of uploaded files that is processed as one job
type Case struct {
	CaseId      string            `json:"caseId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	CreatedAt   string            `json:"createdAt"`
	UpdatedAt   string            `json:"updatedAt"`
	UploadUrl   string            `json:"uploadUrl"`
	Status      string            `json:"status"`
	// StatusTimestamp is the time of the last status change in milliseconds since epoch
	StatusTimestamp int64 `json:"-"`
}

// CaseApiOutput is the representation of a case that is returned by the API
type CaseApiOutput struct {
	CaseId      string            `json:"caseId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	CreatedAt   string            `json:"createdAt"`
	UpdatedAt   string            `json:"updatedAt"`
	UploadUrl   string            `json:"uploadUrl"`
	Status      string            `json:"status"`
}

// ToJobStatus returns the status record of the case
func (c *Case) ToJobStatus() JobStatus {
	return JobStatus{
		Status:    c.Status,
		CaseId:    c.CaseId,
		Timestamp: c.StatusTimestamp,
	}
}

// ToApiOutput returns the case without internal fields
func (c *Case) ToApiOutput() (CaseApiOutput, error) {
	var result CaseApiOutput
	err := copier.CopyWithOption(&result, c, copier.Option{DeepCopy: true})
	if err != nil {
		return CaseApiOutput{}, err
	}
	if result.Metadata == nil {
		result.Metadata = make(map[string]string)
	}
	return result, nil
}
