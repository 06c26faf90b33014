package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// DerivedKeySet implements KeySet with a single Ed25519 keypair
// deterministically derived from a master seed via HKDF-SHA256, keyed on
// one identity id. Because HKDF is one-way, recovering one identity's
// derived key from its signatures never exposes another identity's key,
// even though both trace back to the same master seed.
type DerivedKeySet struct {
	key ed25519.PrivateKey
}

// NewDerivedKeySet derives identityID's signing key from masterSeed.
func NewDerivedKeySet(masterSeed []byte, identityID string) (*DerivedKeySet, error) {
	reader := hkdf.New(sha256.New, masterSeed, []byte("governor-identity-kdf"), []byte(identityID))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("identity: key derivation failed for %q: %w", identityID, err)
	}
	return &DerivedKeySet{key: ed25519.NewKeyFromSeed(seed)}, nil
}

func (ks *DerivedKeySet) Sign(ctx context.Context, claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(ks.key)
}

func (ks *DerivedKeySet) KeyFunc() jwt.Keyfunc {
	pub := ks.key.Public()
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pub, nil
	}
}

// MasterKeyring holds the single seed every identity's signing key is
// derived from. The seed lives only in memory for the process lifetime;
// losing it invalidates every identity's key at once, so callers should
// never log or persist it.
type MasterKeyring struct {
	seed []byte
}

// NewMasterKeyring generates a fresh random master seed.
func NewMasterKeyring() (*MasterKeyring, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, fmt.Errorf("identity: failed to generate master seed: %w", err)
	}
	return &MasterKeyring{seed: seed}, nil
}

// TokensFor returns a TokenManager backed by identityID's derived key, for
// signing attestations on that identity's behalf.
func (m *MasterKeyring) TokensFor(identityID string) (*TokenManager, error) {
	ks, err := NewDerivedKeySet(m.seed, identityID)
	if err != nil {
		return nil, err
	}
	return NewTokenManager(ks), nil
}

// VerifyAttestation derives expectedIdentityID's key on demand and
// validates signatureHash against it. This satisfies the
// AttestationVerifier interface wrap.Validator consumes, so a
// MasterKeyring can be handed to WithTokens directly.
func (m *MasterKeyring) VerifyAttestation(signatureHash, expectedIdentityID string) error {
	tm, err := m.TokensFor(expectedIdentityID)
	if err != nil {
		return err
	}
	return tm.VerifyAttestation(signatureHash, expectedIdentityID)
}
