package mock

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/certforge/certmint/ledger"
)

// MockClient is a mock for the ledger.Client interface.
type MockClient struct {
	mock.Mock
}

var _ ledger.Client = (*MockClient)(nil)

func (m *MockClient) Mint(ctx context.Context, recipient common.Address, tokenURI string) ledger.ResultSubmit {
	args := m.Called(recipient, tokenURI)
	select {
	case <-ctx.Done():
		return ledger.ResultSubmit{BaseResult: ledger.BaseResult{Code: ledger.StatusContextCanceled, Message: ctx.Err().Error()}}
	default:
		return args.Get(0).(ledger.ResultSubmit)
	}
}

func (m *MockClient) TxStatus(ctx context.Context, txHash string) ledger.ResultTxStatus {
	args := m.Called(txHash)
	select {
	case <-ctx.Done():
		return ledger.ResultTxStatus{BaseResult: ledger.BaseResult{Code: ledger.StatusContextCanceled, Message: ctx.Err().Error()}}
	default:
		return args.Get(0).(ledger.ResultTxStatus)
	}
}
