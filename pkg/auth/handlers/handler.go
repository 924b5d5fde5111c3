package handlers

import "net/http"

// AuthHandler exchanges player credentials for the bearer tokens accepted
// by the snapshot API.
type AuthHandler interface {
	HandleRegister() http.HandlerFunc
	HandleLogin() http.HandlerFunc
	HandleRefresh() http.HandlerFunc
}

// TokenResponse is returned by every AuthHandler endpoint.
type TokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	UID          string `json:"uid"`
}
