package dbabstraction

import (
	"fmt"

	"github.com/casedrop/casedrop/internal/configuration/database/provider/redis"
	"github.com/casedrop/casedrop/internal/configuration/database/provider/sqlite"
	"github.com/casedrop/casedrop/internal/models"
)

const (
	// TypeSqlite specifies to use an SQLite database
	TypeSqlite = iota
	// TypeRedis specifies to use a Redis database
	TypeRedis
)

// Database declares the required functions for a database connection
type Database interface {
	// GetType returns identifier of the underlying interface
	GetType() int
	// Close the database connection
	Close()

	// GetDbVersion gets the version number of the database
	GetDbVersion() int
	// SetDbVersion sets the version number of the database
	SetDbVersion(newVersion int)
	// GetSchemaVersion returns the version number, that the database should be if fully upgraded
	GetSchemaVersion() int

	// GetAllCases returns all cases, ordered by creation date
	GetAllCases() []models.Case
	// GetCase returns the case with the given ID or false if not found
	GetCase(id string) (models.Case, bool)
	// SaveCase stores the case, replacing an existing case with the same ID
	SaveCase(newCase models.Case)
	// UpdateCaseStatus sets the job status of a case. Returns false if the case does not exist
	UpdateCaseStatus(id, status string, timestamp int64, updatedAt string) bool
	// DeleteCase deletes the case with the given ID
	DeleteCase(id string)
}

// GetNew connects to the given database and initialises it
func GetNew(config models.DbConnection) (Database, error) {
	switch config.Type {
	case TypeSqlite:
		return sqlite.New(config)
	case TypeRedis:
		return redis.New(config)
	default:
		return nil, fmt.Errorf("unsupported database: type %v", config.Type)
	}
}
