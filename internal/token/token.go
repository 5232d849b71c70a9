// Package token issues and verifies the signed session tokens that carry a
// principal and its entitlement snapshot between requests.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/entitlement"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the HS256 payload. Entitlement facts travel alongside the
// principal so verifiers can re-resolve status without a database read.
type Claims struct {
	jwt.RegisteredClaims

	Kind       string `json:"knd"`
	Name       string `json:"nam"`
	Role       string `json:"rol"`
	FamilyID   *int64 `json:"fid,omitempty"`
	FamilySlug string `json:"fsl,omitempty"`

	BetaParticipant bool             `json:"bet,omitempty"`
	PlanType        string           `json:"plt,omitempty"`
	PlanExpires     *jwt.NumericDate `json:"ple,omitempty"`
	TrialEnds       *jwt.NumericDate `json:"tre,omitempty"`
}

// Principal reconstructs the authenticated identity from the claims.
func (c *Claims) Principal() auth.Principal {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return auth.Principal{
		Kind:       auth.Kind(c.Kind),
		ID:         id,
		Name:       c.Name,
		Role:       c.Role,
		FamilyID:   c.FamilyID,
		FamilySlug: c.FamilySlug,
	}
}

// Snapshot reconstructs the entitlement facts captured at issuance.
func (c *Claims) Snapshot() entitlement.Snapshot {
	s := entitlement.Snapshot{
		BetaParticipant: c.BetaParticipant,
		PlanType:        c.PlanType,
	}
	if c.PlanExpires != nil {
		t := c.PlanExpires.Time
		s.PlanExpires = &t
	}
	if c.TrialEnds != nil {
		t := c.TrialEnds.Time
		s.TrialEnds = &t
	}
	return s
}

type Service struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

func NewService(secret string, lifetime time.Duration) *Service {
	return &Service{
		secret:   []byte(secret),
		lifetime: lifetime,
		issuer:   "sprout-track",
		now:      time.Now,
	}
}

func (s *Service) Issue(p auth.Principal, snap entitlement.Snapshot) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
		Kind:            string(p.Kind),
		Name:            p.Name,
		Role:            p.Role,
		FamilyID:        p.FamilyID,
		FamilySlug:      p.FamilySlug,
		BetaParticipant: snap.BetaParticipant,
		PlanType:        snap.PlanType,
	}
	if snap.PlanExpires != nil {
		claims.PlanExpires = jwt.NewNumericDate(*snap.PlanExpires)
	}
	if snap.TrialEnds != nil {
		claims.TrialEnds = jwt.NewNumericDate(*snap.TrialEnds)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) Verify(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
