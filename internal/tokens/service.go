package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"campusq/internal/shared/config"
)

// Service interface defines the contract for the access-token chain
type Service interface {
	// Issue mints a signed token of the given type. A zero ttl falls
	// back to the configured default for the type.
	Issue(tokenType TokenType, claims TokenClaims, ttl time.Duration) (string, error)

	// Verify checks signature, expiry, type and the consumed-token
	// ledger. The returned claims are trusted once Verify succeeds.
	Verify(ctx context.Context, raw string, allowed ...TokenType) (*Claims, error)

	// MarkUsed records the token in the consumed ledger. Subsequent
	// Verify calls on the same raw value fail with ErrTokenAlreadyUsed.
	MarkUsed(ctx context.Context, raw string) error

	// IsUsed reports whether the token has already been consumed.
	IsUsed(ctx context.Context, raw string) (bool, error)

	// ExchangeForQueueForm consumes a valid permission token and mints
	// a queue-form token carrying the same station claim.
	ExchangeForQueueForm(ctx context.Context, permissionRaw string) (string, error)

	// IssuePermission mints a staff-issued permission token for a station.
	IssuePermission(stationID string) (string, error)
}

type service struct {
	usage  UsageStore
	config *config.TokenConfig
}

// NewService creates a new token service
func NewService(usage UsageStore, cfg *config.TokenConfig) Service {
	return &service{
		usage:  usage,
		config: cfg,
	}
}

func (s *service) Issue(tokenType TokenType, claims TokenClaims, ttl time.Duration) (string, error) {
	if !tokenType.IsValid() {
		return "", ErrTokenInvalid
	}
	if ttl == 0 {
		ttl = s.defaultTTL(tokenType)
	}

	now := time.Now()
	tokenClaims := &Claims{
		Type:      tokenType,
		TicketID:  claims.TicketID,
		StationID: claims.StationID,
		Email:     claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (s *service) Verify(ctx context.Context, raw string, allowed ...TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if len(allowed) > 0 {
		permitted := false
		for _, t := range allowed {
			if claims.Type == t {
				permitted = true
				break
			}
		}
		if !permitted {
			return nil, ErrWrongTokenType
		}
	}

	// Single-use enforcement is external to the signature: a token in
	// the consumed ledger fails even with a valid signature and expiry.
	used, err := s.usage.IsUsed(ctx, digest(raw))
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrTokenAlreadyUsed
	}

	return claims, nil
}

func (s *service) MarkUsed(ctx context.Context, raw string) error {
	ttl := s.remainingLifetime(raw)
	return s.usage.MarkUsed(ctx, digest(raw), ttl)
}

func (s *service) IsUsed(ctx context.Context, raw string) (bool, error) {
	return s.usage.IsUsed(ctx, digest(raw))
}

func (s *service) ExchangeForQueueForm(ctx context.Context, permissionRaw string) (string, error) {
	claims, err := s.Verify(ctx, permissionRaw, TypePermission)
	if err != nil {
		return "", err
	}

	if err := s.MarkUsed(ctx, permissionRaw); err != nil {
		return "", err
	}

	return s.Issue(TypeQueueForm, TokenClaims{StationID: claims.StationID}, s.config.QueueFormTTL)
}

func (s *service) IssuePermission(stationID string) (string, error) {
	return s.Issue(TypePermission, TokenClaims{StationID: stationID}, s.config.PermissionTTL)
}

func (s *service) defaultTTL(tokenType TokenType) time.Duration {
	switch tokenType {
	case TypePermission:
		return s.config.PermissionTTL
	case TypeQueueForm:
		return s.config.QueueFormTTL
	case TypeQueueStatus:
		return s.config.QueueStatusTTL
	}
	return time.Minute
}

// remainingLifetime derives the ledger TTL from the token's own expiry,
// so consumed entries disappear no earlier than the token itself.
func (s *service) remainingLifetime(raw string) time.Duration {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &Claims{}
	_, _, err := parser.ParseUnverified(raw, claims)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

// digest keys the usage ledger without storing raw bearer tokens.
func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
