// Package auth issues and verifies the bearer tokens that protect the chat
// and task APIs. Tokens are compact JWS strings (HS256) carrying the user ID
// in the subject claim plus an expiry.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnauthorized is returned for any token that fails verification:
// malformed, bad signature, expired, or missing a subject.
var ErrUnauthorized = errors.New("unauthorized")

// Claims is the token payload. Sub identifies the user; Exp is a Unix
// timestamp after which the token is rejected.
type Claims struct {
	Sub string `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. Tokens it signs expire after ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Sign produces a token for userID.
func (i *Issuer) Sign(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("auth: user ID is required")
	}

	now := i.now().UTC()
	claims := Claims{
		Sub: userID,
		Iat: now.Unix(),
		Exp: now.Add(i.ttl).Unix(),
	}

	headerJSON, err := json.Marshal(header{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", fmt.Errorf("auth: failed to encode header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("auth: failed to encode claims: %w", err)
	}

	signing := encode(headerJSON) + "." + encode(claimsJSON)
	return signing + "." + encode(i.sign(signing)), nil
}

// Verify checks a token's signature and expiry, returning the subject claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed token", ErrUnauthorized)
	}

	sig, err := decode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed signature", ErrUnauthorized)
	}
	expected := i.sign(parts[0] + "." + parts[1])
	if !hmac.Equal(sig, expected) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrUnauthorized)
	}

	headerJSON, err := decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed header", ErrUnauthorized)
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil || hdr.Alg != "HS256" {
		return nil, fmt.Errorf("%w: unsupported algorithm", ErrUnauthorized)
	}

	claimsJSON, err := decode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed claims", ErrUnauthorized)
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, fmt.Errorf("%w: malformed claims", ErrUnauthorized)
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	if claims.Exp != 0 && i.now().UTC().Unix() >= claims.Exp {
		return nil, fmt.Errorf("%w: token expired", ErrUnauthorized)
	}
	return &claims, nil
}

func (i *Issuer) sign(data string) []byte {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
