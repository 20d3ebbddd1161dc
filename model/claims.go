package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims is the access-token payload. The user id travels in the
// registered "sub" claim.
type AppClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *AppClaims) UserID() string {
	return c.Subject
}
