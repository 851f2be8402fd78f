package auth

import (
	"context"
	"errors"

	"github.com/casedrop/casedrop/internal/models"
)

// ErrNotLoggedIn is returned if no login information has been stored yet
var ErrNotLoggedIn = errors.New("not logged in")

// ErrInvalidUser is returned if the identity provider did not return a subject
var ErrInvalidUser = errors.New("user information does not contain a subject")

// Authenticator returns the attributes of the signed-in user
type Authenticator interface {
	CurrentUser(ctx context.Context) (models.UserInfo, error)
}

// StaticUser is an Authenticator that always returns the same user. Used for unattended uploads
type StaticUser struct {
	user models.UserInfo
}

// NewStaticUser returns a StaticUser, or ErrInvalidUser if the user has no subject
func NewStaticUser(user models.UserInfo) (*StaticUser, error) {
	if !user.IsValid() {
		return nil, ErrInvalidUser
	}
	return &StaticUser{user: user}, nil
}

// CurrentUser returns the configured user
func (s *StaticUser) CurrentUser(ctx context.Context) (models.UserInfo, error) {
	return s.user, nil
}

// claims are the attributes of the ID token that are used. The username is taken from
// the first attribute that is set
type claims struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	CognitoUsername   string `json:"cognito:username"`
	PreferredUsername string `json:"preferred_username"`
	Username          string `json:"username"`
}

func (c claims) toUserInfo() (models.UserInfo, error) {
	user := models.UserInfo{
		Username: c.CognitoUsername,
		Email:    c.Email,
		Sub:      c.Sub,
	}
	if user.Username == "" {
		user.Username = c.PreferredUsername
	}
	if user.Username == "" {
		user.Username = c.Username
	}
	if user.Username == "" {
		user.Username = c.Email
	}
	if !user.IsValid() {
		return models.UserInfo{}, ErrInvalidUser
	}
	return user, nil
}
