// Package token issues and verifies the signed, self-contained session
// tokens used for stateless authentication. Tokens carry the subject
// (username), the role-name snapshot, and an issued-at/expires-at window;
// there is no server-side revocation, so a token stays valid until its
// natural expiry even if the user's roles change afterwards.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum signing-secret length in bytes. HS256 keys
// shorter than the hash output weaken the MAC, so startup rejects them.
const MinSecretLen = 32

var ErrSecretTooShort = errors.New("token: signing secret must be at least 32 bytes")
var ErrInvalidToken = errors.New("token: invalid token")

// Claims is the JWT payload: registered claims plus the role snapshot.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identity is the verified content of a session token.
type Identity struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies session tokens with a process-wide symmetric key.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec validates the secret and returns a ready Codec. A ttl <= 0 falls
// back to one hour.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue produces a signed token for subject with the given role snapshot.
// issuedAt = now, expiresAt = now + TTL; both are returned alongside the
// token so callers can echo the validity window without re-parsing.
func (c *Codec) Issue(subject string, roles []string, now time.Time) (string, time.Time, time.Time, error) {
	issuedAt := now.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return signed, issuedAt, expiresAt, nil
}

// Verify parses and validates a token, failing closed: structural corruption,
// a signature mismatch, an unexpected signing method, or a past expiry all
// yield ErrInvalidToken.
func (c *Codec) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		Subject: claims.Subject,
		Roles:   claims.Roles,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
