package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
)

type schemaCases struct {
	CaseId          string
	Title           string
	Description     string
	Metadata        string
	CreatedAt       string
	UpdatedAt       string
	UploadUrl       string
	Status          string
	StatusTimestamp int64
}

func (s schemaCases) toCase() models.Case {
	result := models.Case{
		CaseId:          s.CaseId,
		Title:           s.Title,
		Description:     s.Description,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		UploadUrl:       s.UploadUrl,
		Status:          s.Status,
		StatusTimestamp: s.StatusTimestamp,
	}
	err := json.Unmarshal([]byte(s.Metadata), &result.Metadata)
	helper.Check(err)
	return result
}

func (s *schemaCases) scanFields() []any {
	return []any{&s.CaseId, &s.Title, &s.Description, &s.Metadata, &s.CreatedAt,
		&s.UpdatedAt, &s.UploadUrl, &s.Status, &s.StatusTimestamp}
}

// GetAllCases returns all cases, ordered by creation date
func (p DatabaseProvider) GetAllCases() []models.Case {
	result := make([]models.Case, 0)
	rows, err := p.sqliteDb.Query("SELECT * FROM Cases ORDER BY CreatedAt, CaseId")
	helper.Check(err)
	defer rows.Close()
	for rows.Next() {
		var rowData schemaCases
		err = rows.Scan(rowData.scanFields()...)
		helper.Check(err)
		result = append(result, rowData.toCase())
	}
	helper.Check(rows.Err())
	return result
}

// GetCase returns the case with the given ID or false if not found
func (p DatabaseProvider) GetCase(id string) (models.Case, bool) {
	var rowResult schemaCases
	row := p.sqliteDb.QueryRow("SELECT * FROM Cases WHERE CaseId = ?", id)
	err := row.Scan(rowResult.scanFields()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Case{}, false
		}
		helper.Check(err)
		return models.Case{}, false
	}
	return rowResult.toCase(), true
}

// SaveCase stores the case, replacing an existing case with the same ID
func (p DatabaseProvider) SaveCase(newCase models.Case) {
	metadata := newCase.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadataJson, err := json.Marshal(metadata)
	helper.Check(err)
	_, err = p.sqliteDb.Exec(`INSERT OR REPLACE INTO Cases (CaseId, Title, Description, Metadata, CreatedAt,
		UpdatedAt, UploadUrl, Status, StatusTimestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newCase.CaseId, newCase.Title, newCase.Description, string(metadataJson), newCase.CreatedAt,
		newCase.UpdatedAt, newCase.UploadUrl, newCase.Status, newCase.StatusTimestamp)
	helper.Check(err)
}

// UpdateCaseStatus sets the job status of a case. Returns false if the case does not exist
func (p DatabaseProvider) UpdateCaseStatus(id, status string, timestamp int64, updatedAt string) bool {
	result, err := p.sqliteDb.Exec("UPDATE Cases SET Status = ?, StatusTimestamp = ?, UpdatedAt = ? WHERE CaseId = ?",
		status, timestamp, updatedAt, id)
	helper.Check(err)
	affected, err := result.RowsAffected()
	helper.Check(err)
	return affected > 0
}

// DeleteCase deletes the case with the given ID
func (p DatabaseProvider) DeleteCase(id string) {
	_, err := p.sqliteDb.Exec("DELETE FROM Cases WHERE CaseId = ?", id)
	helper.Check(err)
}
