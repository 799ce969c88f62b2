package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims a caller may put in a token besides the
// registered sub, iat and exp, which Issue always sets itself.
type SessionClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	SessionClaims
}

// TokenService issues and validates HS256 session tokens. It keeps no
// per-token state; a token is valid as long as its signature matches the
// key and it has not expired.
type TokenService struct {
	secretKey []byte
	now       func() time.Time
}

// NewTokenService creates a TokenService signing with secretKey.
func NewTokenService(secretKey []byte) *TokenService {
	key := make([]byte, len(secretKey))
	copy(key, secretKey)
	return &TokenService{secretKey: key, now: time.Now}
}

// Issue signs a token for subjectID carrying extra, valid for ttl, and
// returns it together with its expiry (second precision, as carried in the
// token).
func (s *TokenService) Issue(subjectID string, extra SessionClaims, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
		},
		SessionClaims: extra,
	})

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt.Time, nil
}

// Validate verifies the token and returns its claims. Errors are
// common.ErrMalformedToken, common.ErrInvalidSignature or common.ErrTokenExpired.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, tokenError(err)
	}

	if claims.Subject == "" {
		return nil, common.ErrMalformedToken
	}

	return claims, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrMalformedToken
	}
}
