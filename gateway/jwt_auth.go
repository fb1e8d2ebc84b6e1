// Package gateway implements auth and HTTP middleware shared across
// restomarket services.
package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/restomarket/restomarket/models"
)

// JWTAuth provides an encapsulation for jwt auth.
type JWTAuth struct {
	Key []byte
}

// TokenClaims is the restomarket standard claim set. CompanyID rides in the
// token so handlers never have to re-resolve the principal's company.
type TokenClaims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	CompanyID string `json:"companyId"`
	jwt.StandardClaims
}

// GenerateJWT issues a bearer token for the user, valid for 24 hours.
func (j *JWTAuth) GenerateJWT(user models.User) (string, error) {
	if len(j.Key) == 0 {
		return "", errors.New("empty jwt key")
	}
	now := time.Now().UTC()
	claims := TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		CompanyID: user.CompanyID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(24 * time.Hour).Unix(),
			Issuer:    "restomarket",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Key)
}

// VerifyJWT validates a token string and returns its claims.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
