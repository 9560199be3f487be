package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// DefaultTokenTTL is how long an admin session token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Token verification failures. Both match ErrTokenInvalid; callers that
// only need allow/deny should test for that.
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenMalformed = fmt.Errorf("%w: malformed or tampered", ErrTokenInvalid)
)

type adminClaims struct {
	AdminID string `json:"admin_id"`
	jwt.StandardClaims
}

// TokenService issues and verifies HS256 admin session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for subjectID that expires after the configured TTL.
func (s *TokenService) Issue(subjectID string) (string, error) {
	now := s.now()
	claims := adminClaims{
		AdminID: subjectID,
		StandardClaims: jwt.StandardClaims{
			Subject:   subjectID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// embedded subject. It returns ErrTokenExpired or ErrTokenMalformed on failure.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &adminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		// Expiry only counts when it is the sole failure; a forged expired
		// token also carries the signature bit.
		if errors.As(err, &ve) && ve.Errors == jwt.ValidationErrorExpired {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}
	if !token.Valid || claims.ExpiresAt == 0 {
		return "", ErrTokenMalformed
	}

	subject := claims.AdminID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return "", ErrTokenMalformed
	}
	return subject, nil
}
