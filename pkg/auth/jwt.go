package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

type Role string

const (
	RoleSuperAdmin     Role = "SUPER_ADMIN"
	RoleContentManager Role = "CONTENT_MANAGER"
	RoleAnalyst        Role = "ANALYST"
)

var roleRank = map[Role]int{
	RoleAnalyst:        1,
	RoleContentManager: 2,
	RoleSuperAdmin:     3,
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Allows reports whether r is at least as privileged as required.
func (r Role) Allows(required Role) bool {
	return roleRank[r] >= roleRank[required] && r.Valid()
}

// Claims identifies an authenticated admin.
type Claims struct {
	Subject string
	Email   string
	Role    Role
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateToken creates an HS256 token for the admin, expiring after the signer's TTL.
func (s *Signer) GenerateToken(c Claims) (string, error) {
	if !c.Role.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, c.Role)
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   c.Subject,
		"email": c.Email,
		"role":  string(c.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates the signature and expiry and returns the admin claims.
func (s *Signer) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	role := Role(fmt.Sprint(claims["role"]))
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	email, _ := claims["email"].(string)

	return &Claims{Subject: sub, Email: email, Role: role}, nil
}
