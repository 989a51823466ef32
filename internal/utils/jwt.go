package utils // package utils provides token minting, verification and hashing helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned for any token that fails signature,
// expiry or claim checks. Callers never see partial claims.
var ErrInvalidToken = errors.New("invalid or expired token")

// Three independent HS256 secrets sign three token families: access
// tokens, refresh tokens and password-reset tokens. A token signed with
// one secret never verifies under another, which prevents a refresh
// token from being replayed as an access token and vice versa.

// Claims is the decoded payload of a verified token.
type Claims struct {
	UserID uint64    // subject (sub) claim
	Role   string    // role claim, empty on reset tokens
	Phone  string    // phone claim, set only on reset tokens
	Exp    time.Time // expiry
}

// SignedToken pairs a serialized JWT with its expiry so handlers can
// report both to the client.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken signs a short-lived HS256 access token carrying the
// user id (sub), role, exp and iat claims.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (SignedToken, error) {
	return signUserToken(secret, userID, role, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken signs a long-lived HS256 refresh token with the same
// claim set as the access token but under the refresh secret. Only the
// SHA-256 hash of the result is persisted; the raw string goes back to
// the client.
func NewRefreshToken(secret string, userID uint64, role string, ttlDays int) (SignedToken, error) {
	return signUserToken(secret, userID, role, time.Duration(ttlDays)*24*time.Hour)
}

func signUserToken(secret string, userID uint64, role string, ttl time.Duration) (SignedToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// NewResetToken signs a single-purpose password-reset token embedding
// the normalized phone number. The token is stateless: possession of a
// valid, unexpired reset token is the only authorization the reset
// endpoint requires.
func NewResetToken(secret, phone string, ttl time.Duration) (SignedToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"phone": phone,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken checks signature and expiry of raw against secret and
// returns the decoded claims. Any failure collapses to ErrInvalidToken.
func VerifyToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject any signing method other than HMAC so a token cannot
		// downgrade to "none" or swap algorithms.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var out Claims
	switch sub := mc["sub"].(type) {
	case string:
		if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
			out.UserID = n
		}
	case float64:
		out.UserID = uint64(sub)
	}
	if role, ok := mc["role"].(string); ok {
		out.Role = role
	}
	if phone, ok := mc["phone"].(string); ok {
		out.Phone = phone
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.Exp = exp.Time
	}
	return out, nil
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as a
// hex string. Storing only the hash keeps stolen database rows from
// being replayed as live sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RefreshHashEqual compares a stored hash with the hash of a presented
// token in constant time.
func RefreshHashEqual(storedHash, presentedRaw string) bool {
	return hmac.Equal([]byte(storedHash), []byte(HashRefreshRaw(presentedRaw)))
}
