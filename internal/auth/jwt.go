package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// userClaimKeys are checked in order for the user identifier.
var userClaimKeys = []string{"sub", "userId", "user_id"}

// JWTValidator verifies HS256 access tokens locally with a shared secret.
type JWTValidator struct {
	secretKey []byte
}

func NewJWTValidator(secretKey string) *JWTValidator {
	return &JWTValidator{secretKey: []byte(secretKey)}
}

// ValidateToken returns the user id carried by a valid token.
func (v *JWTValidator) ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	for _, key := range userClaimKeys {
		if val, ok := claims[key].(string); ok && val != "" {
			return val, nil
		}
	}
	return "", ErrInvalidToken
}
