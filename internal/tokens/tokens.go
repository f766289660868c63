package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hunterdex/armory/internal/apperr"
)

// AccessClaims is the self-contained payload of an access token. Role and
// permissions are a snapshot taken at issuance; they do not track later
// role edits until the token expires or is refreshed.
type AccessClaims struct {
	UserID      uint     `json:"uid"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

const refreshType = "refresh"

func NewJTI() string { return uuid.NewString() }

// Sha256Hex digests a raw token for storage; refresh tokens are persisted
// as digests only.
func Sha256Hex(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func SignAccess(userID uint, username, role string, permissions []string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := AccessClaims{
		UserID:      userID,
		Username:    username,
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	return signed, exp, err
}

func SignRefresh(userID uint, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := RefreshClaims{
		TokenType: refreshType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        NewJTI(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	return signed, exp, err
}

func ParseAccess(raw string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, keyFunc(secret))
	if err != nil {
		return nil, translate(err)
	}
	if !tkn.Valid {
		return nil, apperr.ErrTokenInvalid
	}
	return &claims, nil
}

func ParseRefresh(raw string, secret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, keyFunc(secret))
	if err != nil {
		return nil, translate(err)
	}
	if !tkn.Valid || claims.TokenType != refreshType {
		return nil, apperr.ErrTokenInvalid
	}
	return &claims, nil
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}
}

func translate(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperr.ErrTokenExpired
	}
	return apperr.ErrTokenInvalid
}

// UserID recovers the owner id from the refresh subject.
func (c *RefreshClaims) UserID() (uint, error) {
	v, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, apperr.ErrTokenInvalid
	}
	return uint(v), nil
}
