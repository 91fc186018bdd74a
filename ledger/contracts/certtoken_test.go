package contracts

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateTokenABIParses(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(CertificateTokenABI))
	require.NoError(t, err)

	method, ok := parsed.Methods["mint"]
	require.True(t, ok)
	require.Len(t, method.Inputs, 2)
	assert.Equal(t, "address", method.Inputs[0].Type.String())
	assert.Equal(t, "string", method.Inputs[1].Type.String())
	assert.Equal(t, "d0def521", common.Bytes2Hex(method.ID))
}

func TestMintCalldata(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(CertificateTokenABI))
	require.NoError(t, err)

	recipient := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	data, err := parsed.Pack("mint", recipient, "ipfs://QmFoo")
	require.NoError(t, err)

	name, args, err := unpackCall(parsed, data)
	require.NoError(t, err)
	assert.Equal(t, "mint", name)
	assert.Equal(t, recipient, args[0])
	assert.Equal(t, "ipfs://QmFoo", args[1])
}

func unpackCall(parsed abi.ABI, data []byte) (string, []interface{}, error) {
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	return method.Name, args, err
}
