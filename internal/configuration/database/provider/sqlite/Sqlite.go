package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
	// Required for sqlite driver
	_ "modernc.org/sqlite"
)

// DatabaseProvider contains the database instance
type DatabaseProvider struct {
	sqliteDb *sql.DB
}

// New returns an instance
func New(dbConfig models.DbConnection) (DatabaseProvider, error) {
	return DatabaseProvider{}.init(dbConfig)
}

// GetType returns 0, for being a Sqlite interface
func (p DatabaseProvider) GetType() int {
	return 0 // dbabstraction.TypeSqlite
}

// GetDbVersion gets the version number of the database
func (p DatabaseProvider) GetDbVersion() int {
	var userVersion int
	row := p.sqliteDb.QueryRow("PRAGMA user_version;")
	err := row.Scan(&userVersion)
	helper.Check(err)
	return userVersion
}

// SetDbVersion sets the version number of the database
func (p DatabaseProvider) SetDbVersion(newVersion int) {
	_, err := p.sqliteDb.Exec(fmt.Sprintf("PRAGMA user_version = %d;", newVersion))
	helper.Check(err)
}

// GetSchemaVersion returns the version number, that the database should be if fully upgraded
func (p DatabaseProvider) GetSchemaVersion() int {
	return 1
}

// Init connects to the database and creates the table structure, if necessary
func (p DatabaseProvider) init(dbConfig models.DbConnection) (DatabaseProvider, error) {
	if dbConfig.HostUrl == "" {
		return DatabaseProvider{}, errors.New("empty database url was provided")
	}
	cleanPath := filepath.Clean(dbConfig.HostUrl)
	dataDir := filepath.Dir(cleanPath)
	var err error
	if !helper.FolderExists(dataDir) {
		err = os.MkdirAll(dataDir, 0700)
		if err != nil {
			return DatabaseProvider{}, err
		}
	}
	isNew := !helper.FileExists(cleanPath)
	p.sqliteDb, err = sql.Open("sqlite", cleanPath+"?_pragma=busy_timeout=10000&_pragma=journal_mode=WAL")
	if err != nil {
		return DatabaseProvider{}, err
	}
	if isNew {
		return p, p.createNewDatabase()
	}
	err = p.sqliteDb.Ping()
	if err != nil {
		return p, err
	}
	_, err = p.sqliteDb.Exec("SELECT 1 FROM Cases LIMIT 1")
	return p, err
}

// Close the database connection
func (p DatabaseProvider) Close() {
	if p.sqliteDb != nil {
		err := p.sqliteDb.Close()
		if err != nil {
			fmt.Println(err)
		}
	}
}

func (p DatabaseProvider) createNewDatabase() error {
	sqlStmt := `CREATE TABLE "Cases" (
			"CaseId"	TEXT NOT NULL UNIQUE,
			"Title"	TEXT NOT NULL,
			"Description"	TEXT NOT NULL,
			"Metadata"	TEXT NOT NULL,
			"CreatedAt"	TEXT NOT NULL,
			"UpdatedAt"	TEXT NOT NULL,
			"UploadUrl"	TEXT NOT NULL,
			"Status"	TEXT NOT NULL,
			"StatusTimestamp"	INTEGER NOT NULL,
			PRIMARY KEY("CaseId")
		) WITHOUT ROWID;
		PRAGMA user_version = 1;
`
	return p.rawSqlite(sqlStmt)
}

// rawSqlite runs a raw SQL statement. Should only be used for upgrading
func (p DatabaseProvider) rawSqlite(statement string) error {
	if p.sqliteDb == nil {
		panic("Sqlite not initialised")
	}
	_, err := p.sqliteDb.Exec(statement)
	return err
}
