package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, unsigned, or expired tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the authenticated caller
type Claims struct {
	UserID string `json:"user_id"`
}

// userClaims accepts user_id as a JSON number or string
type userClaims struct {
	UserID any `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier for tokens signed with secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify parses token and returns its claims
func (v *Verifier) Verify(token string) (Claims, error) {
	var uc userClaims
	_, err := v.parser.ParseWithClaims(token, &uc, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, ok := normalizeUserID(uc.UserID)
	if !ok {
		return Claims{}, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}
	return Claims{UserID: id}, nil
}

func normalizeUserID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		if id != float64(int64(id)) {
			return strconv.FormatFloat(id, 'f', -1, 64), true
		}
		return strconv.FormatInt(int64(id), 10), true
	default:
		return "", false
	}
}

// Issuer signs tokens for operators and development
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an issuer signing with secret
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Mint returns a signed token for userID valid for ttl
func (i *Issuer) Mint(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}

	now := i.now()
	claims := userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
