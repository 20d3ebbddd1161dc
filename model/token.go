// file: model/token.go

package model

// TokenPair is the credential set returned by login, register and refresh.
// ExpiresIn is the access-token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionRecord is the JSON value stored under refresh:<refreshId>. The
// field names are part of the store's wire contract and must not change.
type SessionRecord struct {
	UserID string `json:"userId"`
	Hash   string `json:"hash"`
}
