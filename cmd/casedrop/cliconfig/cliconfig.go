package cliconfig

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/casedrop/casedrop/internal/auth"
	"github.com/casedrop/casedrop/internal/helper"
)

// ErrNoLogin is returned if no login information has been saved yet
var ErrNoLogin = errors.New("no login information found, please run 'casedrop login'")

type configFile struct {
	Issuer string           `json:"Issuer"`
	Token  auth.StoredToken `json:"Token"`
}

// Store saves the login state of the CLI in a JSON file
type Store struct {
	path   string
	issuer string
}

// New returns a Store for the file at path. Tokens of a different issuer are ignored
func New(path, issuer string) *Store {
	return &Store{path: path, issuer: issuer}
}

// Exists returns true if login information has been saved
func (s *Store) Exists() bool {
	return helper.FileExists(s.path)
}

// LoadToken returns the saved tokens
func (s *Store) LoadToken() (auth.StoredToken, error) {
	config, err := s.load()
	if err != nil {
		return auth.StoredToken{}, err
	}
	if config.Issuer != s.issuer || config.Token.RefreshToken == "" {
		return auth.StoredToken{}, ErrNoLogin
	}
	return config.Token, nil
}

// SaveToken writes the tokens to the config file
func (s *Store) SaveToken(token auth.StoredToken) error {
	jsonData, err := json.Marshal(configFile{
		Issuer: s.issuer,
		Token:  token,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, jsonData, 0600)
}

// Delete removes the login information
func (s *Store) Delete() error {
	if !s.Exists() {
		return nil
	}
	return os.Remove(s.path)
}

func (s *Store) load() (configFile, error) {
	if !s.Exists() {
		return configFile{}, ErrNoLogin
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return configFile{}, err
	}
	var config configFile
	err = json.Unmarshal(data, &config)
	return config, err
}
