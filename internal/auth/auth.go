package auth

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role issued today; the claim is checked so a token
// minted for another audience cannot reach the back office.
const RoleAdmin = "admin"

type Authenticator interface {
	GenerateTokens(adminID int64, role string) (string, string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
	ValidateRefreshToken(token string) (*jwt.Token, error)
}
