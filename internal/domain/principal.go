package domain

import "time"

// Principal is an identity resolved from the directory at authentication
// time. It is never cached beyond a single request.
type Principal struct {
	Username string
	DN       string
	Groups   []string
}

// TokenClaims are the verified contents of an access token. Group
// membership is deliberately absent.
type TokenClaims struct {
	Subject   string
	DN        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is the result of a successful authentication.
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
}
