// Package access decides which route categories a signed-in user may reach.
// Identity comes from a session token issued by the identity provider; this
// package only reads it and never assigns roles.
package access

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// SessionCookie is the cookie browser sessions carry the token in.
const SessionCookie = "__session"

// Identity is the authenticated caller. Role is empty until the user has
// picked one on the role-selection page.
type Identity struct {
	UserID string
	Role   Role
}

type IdentityProvider interface {
	// CurrentIdentity returns false when the request carries no valid session.
	CurrentIdentity(r *http.Request) (Identity, bool)
}

type metadata struct {
	Role string `json:"role,omitempty"`
}

// Claims accepts the role claim at the top level or inside the public
// metadata object, in either snake or camel case.
type Claims struct {
	Role                string    `json:"role,omitempty"`
	PublicMetadata      *metadata `json:"public_metadata,omitempty"`
	PublicMetadataCamel *metadata `json:"publicMetadata,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) role() Role {
	switch {
	case c.Role != "":
		return Role(c.Role)
	case c.PublicMetadata != nil && c.PublicMetadata.Role != "":
		return Role(c.PublicMetadata.Role)
	case c.PublicMetadataCamel != nil:
		return Role(c.PublicMetadataCamel.Role)
	}
	return ""
}

// JWTProvider verifies HMAC-signed session tokens.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

func (p *JWTProvider) CurrentIdentity(r *http.Request) (Identity, bool) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return Identity{}, false
	}

	id, err := p.Verify(raw)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

// Verify parses and validates a token string.
func (p *JWTProvider) Verify(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid session token")
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("session token has no subject")
	}

	return Identity{UserID: claims.Subject, Role: claims.role()}, nil
}

// SignToken issues a session token for userID. Used by the load simulator
// and tests; production tokens come from the identity provider.
func SignToken(secret, userID string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		PublicMetadata: &metadata{Role: string(role)},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
