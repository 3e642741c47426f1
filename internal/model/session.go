package model

import "strings"

// DefaultUserName is shown when the identity provider reports no name.
const DefaultUserName = "User"

// Session is the explicit credential context handed to a scan.
type Session struct {
	AccessToken string `json:"-"`
	UserName    string `json:"userName"`
}

// HasCredential reports whether an access token is present.
func (s Session) HasCredential() bool {
	return strings.TrimSpace(s.AccessToken) != ""
}

// DisplayName returns the user name or DefaultUserName.
func (s Session) DisplayName() string {
	if strings.TrimSpace(s.UserName) == "" {
		return DefaultUserName
	}
	return s.UserName
}
