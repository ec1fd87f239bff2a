// Package auth issues and verifies the HS256 session tokens the marketplace
// hands to its clients. The cart engine only consumes the parsed result:
// a user id and a role.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vallamarket/cartsync/internal/common"
)

// Claims carries the marketplace session identity on top of the
// registered JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func GenerateToken(userID, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	return token.SignedString(secretKey)
}

// ParseSessionToken verifies the token signature and returns the embedded
// user id and role.
func ParseSessionToken(tokenString string, secretKey []byte) (userID string, role string, err error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", "", err
	}

	if !token.Valid {
		return "", "", common.ErrInvalidToken
	}

	return claims.UserID, claims.Role, nil
}
