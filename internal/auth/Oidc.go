package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/casedrop/casedrop/internal/models"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// StoredToken is the login information that is persisted between CLI calls
type StoredToken struct {
	RefreshToken string `json:"RefreshToken"`
	IdToken      string `json:"IdToken"`
}

// TokenStore persists the login information
type TokenStore interface {
	LoadToken() (StoredToken, error)
	SaveToken(token StoredToken) error
}

// verifierConfig returns the configuration for verifying ID tokens
var verifierConfig = func(clientId string) *oidc.Config {
	return &oidc.Config{ClientID: clientId}
}

// Oidc authenticates the user with the OAuth2 device authorization flow of an OpenID Connect provider
type Oidc struct {
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
	store    TokenStore
	mutex    sync.Mutex
}

// NewOidc loads the provider configuration from the issuer
func NewOidc(ctx context.Context, issuer, clientId, clientSecret string, store TokenStore) (*Oidc, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	if provider.Endpoint().DeviceAuthURL == "" {
		return nil, errors.New("provider " + issuer + " does not support the device authorization flow")
	}
	return &Oidc{
		config: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, oidc.ScopeOfflineAccess, "profile", "email"},
		},
		verifier: provider.Verifier(verifierConfig(clientId)),
		store:    store,
	}, nil
}

// Login starts the device authorization flow. prompt is called with the URL and code the user
// has to enter. Blocks until the user has logged in, the code expired or ctx is cancelled
func (o *Oidc) Login(ctx context.Context, prompt func(response *oauth2.DeviceAuthResponse)) (models.UserInfo, error) {
	response, err := o.config.DeviceAuth(ctx)
	if err != nil {
		return models.UserInfo{}, err
	}
	prompt(response)
	token, err := o.config.DeviceAccessToken(ctx, response)
	if err != nil {
		return models.UserInfo{}, err
	}
	return o.storeToken(ctx, token, "")
}

// CurrentUser refreshes the tokens if the ID token is no longer valid and returns the user
// of the ID token
func (o *Oidc) CurrentUser(ctx context.Context) (models.UserInfo, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	stored, err := o.store.LoadToken()
	if err != nil {
		return models.UserInfo{}, err
	}
	if stored.RefreshToken == "" && stored.IdToken == "" {
		return models.UserInfo{}, ErrNotLoggedIn
	}
	user, err := o.verify(ctx, stored.IdToken)
	if err == nil {
		return user, nil
	}
	if stored.RefreshToken == "" {
		return models.UserInfo{}, err
	}
	token, err := o.config.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken}).Token()
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("refreshing token: %w", err)
	}
	return o.storeToken(ctx, token, stored.RefreshToken)
}

func (o *Oidc) storeToken(ctx context.Context, token *oauth2.Token, previousRefreshToken string) (models.UserInfo, error) {
	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return models.UserInfo{}, errors.New("no id_token was returned by the provider")
	}
	user, err := o.verify(ctx, idToken)
	if err != nil {
		return models.UserInfo{}, err
	}
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefreshToken
	}
	err = o.store.SaveToken(StoredToken{
		RefreshToken: refreshToken,
		IdToken:      idToken,
	})
	if err != nil {
		return models.UserInfo{}, err
	}
	return user, nil
}

func (o *Oidc) verify(ctx context.Context, rawIdToken string) (models.UserInfo, error) {
	if rawIdToken == "" {
		return models.UserInfo{}, ErrNotLoggedIn
	}
	idToken, err := o.verifier.Verify(ctx, rawIdToken)
	if err != nil {
		return models.UserInfo{}, err
	}
	var result claims
	err = idToken.Claims(&result)
	if err != nil {
		return models.UserInfo{}, err
	}
	user, err := result.toUserInfo()
	if err != nil {
		return models.UserInfo{}, err
	}
	return user, nil
}
