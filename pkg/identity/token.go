package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeySet signs attestation tokens and verifies them. *DerivedKeySet
// implements it.
type KeySet interface {
	// Sign creates a signed token with the current active key.
	Sign(ctx context.Context, claims jwt.Claims) (string, error)
	// KeyFunc returns the key for verification based on the token header.
	KeyFunc() jwt.Keyfunc
}

// IdentityClaims extends standard JWT claims with the registry class of the
// signing identity, so a verifier can recover it without a registry lookup.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Class Class `json:"class,omitempty"`
}

// TokenManager signs and verifies attestation tokens on behalf of
// principals. WRAP attestation signatures are produced through this type.
type TokenManager struct {
	keySet KeySet
}

func NewTokenManager(ks KeySet) *TokenManager {
	return &TokenManager{keySet: ks}
}

// GenerateToken creates a signed JWT for a Principal, valid for duration.
func (tm *TokenManager) GenerateToken(p Principal, duration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.ID(),
			Subject:   p.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			Issuer:    "governor/identity",
			Audience:  jwt.ClaimStrings{"governor.internal"},
		},
	}

	if ident, ok := p.(*Identity); ok {
		claims.Class = ident.Class
	}

	return tm.keySet.Sign(context.Background(), claims)
}

// ValidateToken parses and validates a JWT string produced by GenerateToken.
func (tm *TokenManager) ValidateToken(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, tm.keySet.KeyFunc())
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*IdentityClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenSignatureInvalid
}

// VerifyAttestation validates signatureHash as a token produced by
// GenerateToken and checks its subject matches expectedIdentityID. WRAP
// attestations carry signatureHash as their proof of authorship; this is
// the check an orchestrator runs before trusting one.
func (tm *TokenManager) VerifyAttestation(signatureHash, expectedIdentityID string) error {
	claims, err := tm.ValidateToken(signatureHash)
	if err != nil {
		return fmt.Errorf("identity: attestation signature invalid: %w", err)
	}
	if claims.Subject != expectedIdentityID {
		return fmt.Errorf("identity: attestation signed by %q, claimed by %q", claims.Subject, expectedIdentityID)
	}
	return nil
}
