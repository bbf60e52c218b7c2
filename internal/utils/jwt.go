package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity carried in the auth_token session.
type Claims struct {
	UserID                uuid.UUID
	Email                 string
	RegistrationCompleted bool
}

type jwtCustomClaims struct {
	UserID                string `json:"userId"`
	Email                 string `json:"email"`
	RegistrationCompleted bool   `json:"registrationCompleted"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for the provided identity.
func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtCustomClaims{
		UserID:                claims.UserID.String(),
		Email:                 claims.Email,
		RegistrationCompleted: claims.RegistrationCompleted,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded identity.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &Claims{
		UserID:                userID,
		Email:                 claims.Email,
		RegistrationCompleted: claims.RegistrationCompleted,
	}, nil
}
