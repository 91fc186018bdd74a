package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	logging "github.com/ipfs/go-log/v2"

	"github.com/certforge/certmint/ledger/contracts"
	"github.com/certforge/certmint/pkg/signer"
)

// EVMConfig stores EVM ledger client configuration parameters.
type EVMConfig struct {
	// URL is the JSON-RPC endpoint of the ledger node.
	URL string `mapstructure:"url" yaml:"url"`
	// ContractAddress is the deployed certificate token contract.
	ContractAddress string `mapstructure:"contract_address" yaml:"contract_address"`
	// GasLimit caps gas for one mint transaction.
	GasLimit uint64 `mapstructure:"gas_limit" yaml:"gas_limit"`
}

// EVMClient submits mint transactions to an EVM ledger and answers
// confirmation polls for their hashes.
type EVMClient struct {
	cfg        EVMConfig
	signer     signer.Signer
	rpc        *ethclient.Client
	transactor *contracts.CertificateTokenTransactor
	chainID    *big.Int
	logger     *logging.ZapEventLogger
}

var _ Client = (*EVMClient)(nil)

// NewEVMClient returns an unconnected EVM ledger client. Call Start before use.
func NewEVMClient(cfg EVMConfig, s signer.Signer, logger *logging.ZapEventLogger) *EVMClient {
	return &EVMClient{
		cfg:    cfg,
		signer: s,
		logger: logger,
	}
}

// Start dials the ledger node and binds the certificate contract.
func (c *EVMClient) Start(ctx context.Context) error {
	c.logger.Infow("starting EVM ledger client", "url", c.cfg.URL, "contract", c.cfg.ContractAddress)
	rpc, err := ethclient.DialContext(ctx, c.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to dial ledger node: %w", err)
	}
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		rpc.Close()
		return fmt.Errorf("failed to fetch chain id: %w", err)
	}
	transactor, err := contracts.NewCertificateTokenTransactor(common.HexToAddress(c.cfg.ContractAddress), rpc)
	if err != nil {
		rpc.Close()
		return fmt.Errorf("failed to bind certificate contract: %w", err)
	}
	c.rpc = rpc
	c.chainID = chainID
	c.transactor = transactor
	return nil
}

// Stop closes the underlying RPC connection.
func (c *EVMClient) Stop() error {
	c.logger.Info("stopping EVM ledger client")
	if c.rpc != nil {
		c.rpc.Close()
	}
	return nil
}

// Mint submits one mint(recipient, tokenURI) transaction. It returns as soon
// as the transaction is accepted by the node; inclusion is observed via TxStatus.
func (c *EVMClient) Mint(ctx context.Context, recipient common.Address, tokenURI string) ResultSubmit {
	if c.signer == nil {
		return ResultSubmit{BaseResult: BaseResult{Code: StatusNoSigner, Message: "no signer connected"}}
	}
	opts, err := c.buildTxOpts(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ResultSubmit{BaseResult: BaseResult{Code: StatusContextCanceled, Message: err.Error()}}
		}
		return ResultSubmit{BaseResult: BaseResult{Code: StatusRejected, Message: "failed to prepare transaction: " + err.Error()}}
	}

	tx, err := c.transactor.Mint(opts, recipient, tokenURI)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ResultSubmit{BaseResult: BaseResult{Code: StatusContextCanceled, Message: err.Error()}}
		}
		c.logger.Errorw("mint submission rejected", "recipient", recipient.Hex(), "error", err)
		return ResultSubmit{BaseResult: BaseResult{Code: StatusRejected, Message: err.Error()}}
	}

	c.logger.Debugw("submitted mint transaction", "hash", tx.Hash().Hex(), "recipient", recipient.Hex(), "tokenURI", tokenURI)
	return ResultSubmit{
		BaseResult:  BaseResult{Code: StatusSuccess},
		TxHash:      tx.Hash().Hex(),
		SubmittedAt: time.Now(),
	}
}

// TxStatus polls the ledger for the receipt of a previously submitted
// transaction.
func (c *EVMClient) TxStatus(ctx context.Context, txHash string) ResultTxStatus {
	receipt, err := c.rpc.TransactionReceipt(ctx, common.HexToHash(txHash))
	switch {
	case errors.Is(err, ethereum.NotFound):
		return ResultTxStatus{BaseResult: BaseResult{Code: StatusPending}}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return ResultTxStatus{BaseResult: BaseResult{Code: StatusContextCanceled, Message: err.Error()}}
	case err != nil:
		return ResultTxStatus{BaseResult: BaseResult{Code: StatusError, Message: err.Error()}}
	}
	if receipt.Status == coretypes.ReceiptStatusFailed {
		return ResultTxStatus{BaseResult: BaseResult{Code: StatusConfirmationFailed, Message: "transaction reverted"}}
	}
	return ResultTxStatus{
		BaseResult:  BaseResult{Code: StatusSuccess},
		BlockNumber: receipt.BlockNumber.Uint64(),
	}
}

// buildTxOpts assembles signing options for one submission: nonce from the
// node's pending state, keyed transactor for the configured chain.
func (c *EVMClient) buildTxOpts(ctx context.Context) (*bind.TransactOpts, error) {
	key, err := c.signer.GetSigningKey()
	if err != nil {
		return nil, fmt.Errorf("signing key unavailable: %w", err)
	}
	sender, err := c.signer.Address()
	if err != nil {
		return nil, err
	}
	nonce, err := c.rpc.PendingNonceAt(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending nonce: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.Nonce = big.NewInt(int64(nonce)) //nolint:gosec
	opts.Value = big.NewInt(0)
	opts.GasLimit = c.cfg.GasLimit
	return opts, nil
}
