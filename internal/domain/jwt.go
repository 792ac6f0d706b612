package domain

import "github.com/golang-jwt/jwt/v5"

// GymClaims are the JWT claims issued by the external auth service.
// This service only verifies them.
type GymClaims struct {
	GymID    string `json:"gym_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
