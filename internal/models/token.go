package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the caller's identity inside an access token.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Name   string   `json:"name,omitempty"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
