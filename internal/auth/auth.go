// Package auth builds the request headers for the ServiceNow REST API.
// Credential storage and token refresh live outside this module; the only
// contract consumers rely on is Headers().
package auth

import (
	"encoding/base64"
)

// Manager supplies the authentication headers for every outbound request.
type Manager interface {
	Headers() map[string]string
}

// Basic authenticates with a username/password pair.
type Basic struct {
	Username string
	Password string
}

func (b *Basic) Headers() map[string]string {
	cred := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	return map[string]string{
		"Authorization": "Basic " + cred,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
}

// Token authenticates with a pre-issued OAuth bearer token.
type Token struct {
	Token string
}

func (t *Token) Headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + t.Token,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
}

// APIKey authenticates with an instance API key header.
type APIKey struct {
	Key    string
	Header string // defaults to x-sn-apikey
}

func (a *APIKey) Headers() map[string]string {
	header := a.Header
	if header == "" {
		header = "x-sn-apikey"
	}
	return map[string]string{
		header:         a.Key,
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
}
