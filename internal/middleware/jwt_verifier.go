package middleware

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

// JWTVerifier accepts HMAC-signed tokens carrying JwtCustomClaims.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (models.Identity, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return models.Identity{}, ErrInvalidToken
	}
	return models.Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, nil
}
