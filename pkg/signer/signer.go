package signer

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Signer is an interface that abstracts the wallet key management for
// issuance transactions.
type Signer interface {
	// GetSigningKey returns the private key used for signing.
	GetSigningKey() (*ecdsa.PrivateKey, error)

	// Address returns the ledger address derived from the signing key.
	// Issued certificates are minted to this address.
	Address() (common.Address, error)
}

// Provider is an interface for creating new signers.
type Provider interface {
	// NewSigner creates a new signer instance.
	NewSigner() (Signer, error)
}
