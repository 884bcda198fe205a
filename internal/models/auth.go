package models

import "github.com/golang-jwt/jwt/v5"

// StaffRole represents the roles allowed into the admin dashboard.
type StaffRole string

const (
	RoleOwner    StaffRole = "OWNER"
	RoleAdmin    StaffRole = "ADMIN"
	RoleEducator StaffRole = "EDUCATOR"
)

// JWTClaims represents the payload of a staff access token.
type JWTClaims struct {
	UserID string    `json:"user_id"`
	Role   StaffRole `json:"role"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	jwt.RegisteredClaims
}
