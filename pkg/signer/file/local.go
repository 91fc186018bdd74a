package file

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/certforge/certmint/pkg/signer"
)

// KeyFileName is the name of the key file inside the signer directory.
const KeyFileName = "signer.key"

// FileSigner loads a hex-encoded secp256k1 private key from disk and keeps
// it in memory for the process lifetime.
type FileSigner struct {
	privateKey *ecdsa.PrivateKey
	keyFile    string
	mu         sync.RWMutex
}

var _ signer.Signer = (*FileSigner)(nil)

// CreateFileSigner generates a new key pair and writes it to keyPath.
// It fails if a key file already exists there.
func CreateFileSigner(keyPath string) (*FileSigner, error) {
	filePath := filepath.Join(keyPath, KeyFileName)

	if err := os.MkdirAll(keyPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if _, err := os.Stat(filePath); err == nil {
		return nil, fmt.Errorf("key file already exists at %s", filePath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to check key file status: %w", err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	if err := crypto.SaveECDSA(filePath, key); err != nil {
		_ = os.Remove(filePath)
		return nil, fmt.Errorf("failed to save key: %w", err)
	}

	return &FileSigner{privateKey: key, keyFile: filePath}, nil
}

// LoadFileSigner loads an existing hex key file from keyPath.
func LoadFileSigner(keyPath string) (*FileSigner, error) {
	filePath := filepath.Join(keyPath, KeyFileName)
	key, err := crypto.LoadECDSA(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load key file %s: %w", filePath, err)
	}
	return &FileSigner{privateKey: key, keyFile: filePath}, nil
}

// NewFromHex builds a signer directly from a hex-encoded private key.
// Used for environments that inject the key instead of mounting a file.
func NewFromHex(hexKey string) (*FileSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &FileSigner{privateKey: key}, nil
}

// GetSigningKey returns the private key used for signing.
func (s *FileSigner) GetSigningKey() (*ecdsa.PrivateKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.privateKey == nil {
		return nil, fmt.Errorf("signer has no private key loaded")
	}
	return s.privateKey, nil
}

// Address returns the address derived from the signing key.
func (s *FileSigner) Address() (common.Address, error) {
	key, err := s.GetSigningKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
