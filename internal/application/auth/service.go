package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer signs and verifies HS256 bearer tokens whose subject is the account id.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func (t *TokenIssuer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Issue returns a signed token for accountID and its expiry time.
func (t *TokenIssuer) Issue(accountID uuid.UUID) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp, err
}

// Parse verifies the token and returns the account id it was issued for.
func (t *TokenIssuer) Parse(tokenString string) (uuid.UUID, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.Secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(strings.TrimSpace(claims.Subject))
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Principal is the caller proven by a bearer token.
type Principal struct {
	AccountID uuid.UUID
	Username  string
	Role      domain.Role
}

func (p *Principal) HasRole(min domain.Role) bool {
	return p != nil && p.Role.AtLeast(min)
}

type principalKey struct{}

// WithPrincipal returns a child context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// AccountFinder loads accounts by id.
type AccountFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// Resolver turns an Authorization header into a Principal.
type Resolver struct {
	Tokens   *TokenIssuer
	Accounts AccountFinder
}

// Resolve verifies the bearer token, loads the account and rejects locked accounts.
// A token for a deleted account is reported as invalid.
func (r *Resolver) Resolve(ctx context.Context, header string) (*Principal, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	id, err := r.Tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	acc, err := r.Accounts.GetByID(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if acc.IsLocked() {
		return nil, ErrAccountLocked
	}
	return &Principal{AccountID: acc.ID, Username: acc.Username, Role: acc.Role}, nil
}
