package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// CertificateTokenABI is the input ABI used to generate the binding from.
const CertificateTokenABI = `[{"inputs":[{"internalType":"address","name":"recipient","type":"address"},{"internalType":"string","name":"tokenURI","type":"string"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// CertificateTokenTransactor is a write-only binding to the certificate
// token contract.
type CertificateTokenTransactor struct {
	contract *bind.BoundContract
}

// NewCertificateTokenTransactor creates a new write-only instance of the
// certificate token contract, bound to a specific deployed contract.
func NewCertificateTokenTransactor(address common.Address, transactor bind.ContractTransactor) (*CertificateTokenTransactor, error) {
	parsed, err := abi.JSON(strings.NewReader(CertificateTokenABI))
	if err != nil {
		return nil, err
	}
	return &CertificateTokenTransactor{
		contract: bind.NewBoundContract(address, parsed, nil, transactor, nil),
	}, nil
}

// Mint is a paid mutator transaction binding the contract method 0xd0def521.
//
// Solidity: function mint(address recipient, string tokenURI) returns()
func (t *CertificateTokenTransactor) Mint(opts *bind.TransactOpts, recipient common.Address, tokenURI string) (*coretypes.Transaction, error) {
	return t.contract.Transact(opts, "mint", recipient, tokenURI)
}
