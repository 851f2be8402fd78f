package redis

import (
	"encoding/json"
	"sort"

	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
	redigo "github.com/gomodule/redigo/redis"
)

const (
	prefixCases = "case:"
)

type schemaCases struct {
	CaseId          string `redis:"CaseId"`
	Title           string `redis:"Title"`
	Description     string `redis:"Description"`
	Metadata        string `redis:"Metadata"`
	CreatedAt       string `redis:"CreatedAt"`
	UpdatedAt       string `redis:"UpdatedAt"`
	UploadUrl       string `redis:"UploadUrl"`
	Status          string `redis:"Status"`
	StatusTimestamp int64  `redis:"StatusTimestamp"`
}

func dbToCase(input []any) models.Case {
	var dbResult schemaCases
	err := redigo.ScanStruct(input, &dbResult)
	helper.Check(err)
	result := models.Case{
		CaseId:          dbResult.CaseId,
		Title:           dbResult.Title,
		Description:     dbResult.Description,
		CreatedAt:       dbResult.CreatedAt,
		UpdatedAt:       dbResult.UpdatedAt,
		UploadUrl:       dbResult.UploadUrl,
		Status:          dbResult.Status,
		StatusTimestamp: dbResult.StatusTimestamp,
	}
	if dbResult.Metadata != "" {
		err = json.Unmarshal([]byte(dbResult.Metadata), &result.Metadata)
		helper.Check(err)
	}
	return result
}

// GetAllCases returns all cases, ordered by creation date
func (p DatabaseProvider) GetAllCases() []models.Case {
	result := make([]models.Case, 0)
	for _, hash := range p.getAllHashesWithPrefix(prefixCases) {
		result = append(result, dbToCase(hash))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt == result[j].CreatedAt {
			return result[i].CaseId < result[j].CaseId
		}
		return result[i].CreatedAt < result[j].CreatedAt
	})
	return result
}

// GetCase returns the case with the given ID or false if not found
func (p DatabaseProvider) GetCase(id string) (models.Case, bool) {
	hashmapEntry, ok := p.getHashMap(prefixCases + id)
	if !ok {
		return models.Case{}, false
	}
	return dbToCase(hashmapEntry), true
}

// SaveCase stores the case, replacing an existing case with the same ID
func (p DatabaseProvider) SaveCase(newCase models.Case) {
	metadata := newCase.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadataJson, err := json.Marshal(metadata)
	helper.Check(err)
	p.setHashMap(p.buildArgs(prefixCases + newCase.CaseId).AddFlat(schemaCases{
		CaseId:          newCase.CaseId,
		Title:           newCase.Title,
		Description:     newCase.Description,
		Metadata:        string(metadataJson),
		CreatedAt:       newCase.CreatedAt,
		UpdatedAt:       newCase.UpdatedAt,
		UploadUrl:       newCase.UploadUrl,
		Status:          newCase.Status,
		StatusTimestamp: newCase.StatusTimestamp,
	}))
}

// UpdateCaseStatus sets the job status of a case. Returns false if the case does not exist
func (p DatabaseProvider) UpdateCaseStatus(id, status string, timestamp int64, updatedAt string) bool {
	if !p.exists(prefixCases + id) {
		return false
	}
	p.setHashMap(p.buildArgs(prefixCases+id).Add("Status", status, "StatusTimestamp", timestamp, "UpdatedAt", updatedAt))
	return true
}

// DeleteCase deletes the case with the given ID
func (p DatabaseProvider) DeleteCase(id string) {
	p.deleteKey(prefixCases + id)
}
