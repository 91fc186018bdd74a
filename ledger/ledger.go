package ledger

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StatusCode is used to determine the outcome of a ledger operation.
type StatusCode uint64

// Ledger operation status codes.
const (
	StatusUnknown StatusCode = iota
	StatusSuccess
	StatusPending
	StatusNoSigner
	StatusRejected
	StatusConfirmationFailed
	StatusContextCanceled
	StatusError
)

// BaseResult contains the parts of a result shared by all ledger operations.
type BaseResult struct {
	// Code is to determine if the operation succeeded.
	Code StatusCode
	// Message may contain a ledger-specific error message.
	Message string
}

// ResultSubmit contains the result of a mint submission.
type ResultSubmit struct {
	BaseResult
	// TxHash is the hash of the submitted transaction.
	TxHash string
	// SubmittedAt is the local time the transaction was handed to the network.
	SubmittedAt time.Time
}

// ResultTxStatus contains the result of a confirmation poll for one
// transaction hash.
type ResultTxStatus struct {
	BaseResult
	// BlockNumber is the block the transaction was included in, when confirmed.
	BlockNumber uint64
}

// Client is the fixed external call surface of the certificate contract.
// Implementations submit one mint(recipient, tokenURI) transaction per call
// and answer confirmation polls for previously submitted hashes.
type Client interface {
	// Mint submits a mint(recipient, tokenURI) transaction signed by the
	// connected signer and returns its handle without waiting for inclusion.
	Mint(ctx context.Context, recipient common.Address, tokenURI string) ResultSubmit

	// TxStatus reports whether the transaction with the given hash is still
	// pending, confirmed, or failed on the ledger.
	TxStatus(ctx context.Context, txHash string) ResultTxStatus
}
