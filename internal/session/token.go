package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid session token")

// IssueToken signs a session token for the given user.
func IssueToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// IdentityFromToken reads the identity out of a verified token.
func IdentityFromToken(token *jwt.Token) (*Identity, error) {
	if token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return &Identity{UserID: sub, Email: email}, nil
}
