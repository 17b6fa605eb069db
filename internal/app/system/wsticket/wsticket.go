// Package wsticket issues and validates the short-lived tokens that
// authenticate websocket upgrades.
//
// Browser websocket clients cannot reliably attach the session cookie on a
// cross-origin upgrade, so a signed-in client first asks the API for a
// ticket and passes it as a query parameter on the ws URL. Tickets are
// HMAC-signed, single-purpose, and expire after a minute; they name either
// a user id or a bingo guest id.
package wsticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TTL is how long an issued ticket stays valid. Tickets are requested
// immediately before dialing, so this only needs to cover the upgrade.
const TTL = 60 * time.Second

// ErrInvalid is returned for tickets that are malformed, expired, or
// signed with a different key.
var ErrInvalid = errors.New("invalid websocket ticket")

// Claims carries the subject identity inside a ticket.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Issuer mints and validates tickets with a shared HMAC key.
type Issuer struct {
	key []byte
}

// NewIssuer builds an Issuer from the configured signing key.
func NewIssuer(key string) (*Issuer, error) {
	if key == "" {
		return nil, fmt.Errorf("ws ticket key is empty; provide 32+ random chars")
	}
	return &Issuer{key: []byte(key)}, nil
}

// Issue returns a signed ticket for the given subject (a user id hex or a
// "guest-<uuid>" bingo identity).
func (i *Issuer) Issue(subject, name string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
		Name: name,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.key)
}

// Validate parses a ticket and returns its claims, or ErrInvalid.
func (i *Issuer) Validate(ticket string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
