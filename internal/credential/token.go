package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

// ErrInvalidCredential is returned when a session credential has a bad
// signature, a malformed payload, or has expired.
var ErrInvalidCredential = fmt.Errorf("credential: invalid or expired token: %w", domain.ErrUnauthenticated)

const issuer = "taskhub"

// DefaultTTL is how long an issued session credential stays valid.
const DefaultTTL = 24 * time.Hour

// Claims holds the JWT token payload.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid"` // empty for platform users
	UserID   string `json:"uid"`
	Role     string `json:"role"`
}

// Identity is the decoded, verified content of a session credential.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID // uuid.Nil for platform users
	Role     domain.Role
}

// Store hashes passwords and issues/verifies signed session credentials.
type Store struct {
	hasher Hasher
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a credential Store signing with secret. A non-positive ttl selects DefaultTTL.
func New(hasher Hasher, secret string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		hasher: hasher,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued credentials.
func (s *Store) TTL() time.Duration { return s.ttl }

// HashPassword returns the one-way hash of password.
func (s *Store) HashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("credential.HashPassword: %w", err)
	}
	return hash, nil
}

// VerifyPassword reports whether password matches hash.
func (s *Store) VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return s.hasher.Verify(password, hash)
}

// Issue creates a signed credential for u.
func (s *Store) Issue(u *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
		UserID: u.ID.String(),
		Role:   string(u.Role),
	}
	if u.TenantID != uuid.Nil {
		claims.TenantID = u.TenantID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("credential.Issue: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a credential and returns the identity it asserts.
func (s *Store) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("credential.Verify: %w", errors.Join(ErrInvalidCredential, err))
	}
	if !token.Valid {
		return nil, fmt.Errorf("credential.Verify: %w", ErrInvalidCredential)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("credential.Verify: user id: %w", ErrInvalidCredential)
	}

	tenantID := uuid.Nil
	if claims.TenantID != "" {
		tenantID, err = uuid.Parse(claims.TenantID)
		if err != nil {
			return nil, fmt.Errorf("credential.Verify: tenant id: %w", ErrInvalidCredential)
		}
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("credential.Verify: role: %w", ErrInvalidCredential)
	}

	return &Identity{UserID: userID, TenantID: tenantID, Role: role}, nil
}
