package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the JWT payload issued at login and verified by the auth
// middleware on every request.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}
