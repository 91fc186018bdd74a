package noop

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/certforge/certmint/pkg/signer"
)

// NoopSigner implements the signer.Signer interface with an ephemeral key.
// It generates a fresh secp256k1 key pair for each instance and is meant
// for tests and local development only.
type NoopSigner struct {
	privKey *ecdsa.PrivateKey
}

var _ signer.Signer = (*NoopSigner)(nil)

// NewNoopSigner creates a new signer with a fresh key pair.
func NewNoopSigner() (*NoopSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return &NoopSigner{privKey: key}, nil
}

// GetSigningKey returns the ephemeral private key.
func (s *NoopSigner) GetSigningKey() (*ecdsa.PrivateKey, error) {
	return s.privKey, nil
}

// Address returns the address derived from the ephemeral key.
func (s *NoopSigner) Address() (common.Address, error) {
	return crypto.PubkeyToAddress(s.privKey.PublicKey), nil
}
