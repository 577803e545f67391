package token // package token issues and verifies session credentials

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens at rest
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"        // sentinel error values
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for signed access tokens
)

// ErrTokenInvalid is the single error returned for every access-token
// verification failure: malformed, wrong signature, wrong algorithm,
// expired, or missing claims.  Callers must not be able to tell these
// apart, so the distinction is never surfaced.
var ErrTokenInvalid = errors.New("invalid token")

// Session is the verified identity decoded from an access token.  It
// is constructed per-request by the session middleware and carries no
// lifecycle of its own beyond the request.
type Session struct {
	UserID    uint64
	Role      string
	ExpiresAt time.Time
}

// AccessToken is a signed JWT access token together with its expiry.
// Access tokens are short-lived (minutes, not days) and sent in the
// Authorization header or an HTTP-only cookie on protected requests.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken is a long-lived opaque credential used solely to obtain
// a new access token.  Raw is the random value returned to the client;
// only its SHA-256 hash is ever stored server-side.  It is not a JWT
// and carries no claims: its authority comes entirely from the stored
// record, which is what makes instant server-side revocation possible.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The claims
// are the standard subject (sub), the account role, expiration (exp)
// and issued-at (iat).  Expiry is an absolute UTC timestamp computed
// here, at issuance time.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a serialized
// access token and returns the decoded Session.  Any failure collapses
// to ErrTokenInvalid.
func ParseAccessToken(secret, raw string) (Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC signatures minted by NewAccessToken are acceptable;
		// reject any other algorithm before touching the payload.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Session{}, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrTokenInvalid
	}
	sub, ok := claims["sub"].(float64) // jwt decodes numbers as float64
	if !ok || sub <= 0 {
		return Session{}, ErrTokenInvalid
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Session{}, ErrTokenInvalid
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Session{}, ErrTokenInvalid
	}
	return Session{UserID: uint64(sub), Role: role, ExpiresAt: exp.Time}, nil
}

// NewRefreshToken returns a cryptographically random opaque token and
// its expiration.  The raw value is 48 random bytes hex-encoded (96
// characters); ttlDays controls how long the session lineage lives.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as a
// hex string.  Storing only the hash means a leaked database dump
// cannot be replayed to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
