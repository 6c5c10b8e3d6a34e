package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set member role
type RoleType string

const (
	// RoleAdmin is the admin role
	RoleAdmin RoleType = "admin"
	// RoleMember is the member role
	RoleMember RoleType = "member"
)

// BearerPrefix Authorization header prefix
const BearerPrefix = "Bearer "

// ErrInvalidToken token cannot be used
var ErrInvalidToken = errors.New("invalid token")

// Claims structure for custom claims in JWT
type Claims struct {
	MemberID int64  `json:"member_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Secret Key for JWT signing and validation
var (
	JWTSecret       = []byte("secure_secret_key")
	tokenExpiration = 60 * time.Minute
)

// GenerateJWT generates a JWT token
func GenerateJWT(memberID int64, role, issuer string) (string, error) {
	claims := Claims{
		MemberID: memberID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// ParseJWT parses a JWT and extracts the Claims
func ParseJWT(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Check if the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// StripBearer token part of an Authorization header
func StripBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(header, BearerPrefix), true
}

// CheckJWTNotExpire check the Authorization header token is still valid
func CheckJWTNotExpire(header string) (bool, error) {
	tokenStr, ok := StripBearer(header)
	if !ok {
		return false, errors.New("invalid or missing token")
	}
	claims, err := ParseJWT(tokenStr)
	if err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true, nil
	}
	return exp.After(time.Now()), nil
}
