// internal/blockchain/client_test.go
package blockchain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistryClient(t *testing.T) *Client {
	t.Helper()
	registryABI, err := abi.JSON(strings.NewReader(ipAssetRegistryABI))
	require.NoError(t, err)
	return &Client{registryABI: registryABI}
}

func registrationLog(t *testing.T, c *Client, ipID common.Address, tokenID *big.Int) *types.Log {
	t.Helper()
	registered := c.registryABI.Events["IPRegistered"]
	data, err := registered.Inputs.NonIndexed().Pack(
		ipID, "Test Asset", "ipfs://QmX", big.NewInt(1700000000))
	require.NoError(t, err)

	return &types.Log{
		Topics: []common.Hash{
			registered.ID,
			common.BigToHash(big.NewInt(1514)),
			common.HexToAddress("0x00000000000000000000000000000000000000c1").Hash(),
			common.BigToHash(tokenID),
		},
		Data: data,
	}
}

func TestDecodeRegistrationFillsIDs(t *testing.T) {
	c := testRegistryClient(t)
	ipID := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	result := &MintAndRegisterResult{Confirmed: true}
	receipt := &types.Receipt{Logs: []*types.Log{registrationLog(t, c, ipID, big.NewInt(42))}}

	c.decodeRegistration(result, receipt)
	assert.Equal(t, ipID, result.IPAssetID)
	assert.Equal(t, int64(42), result.TokenID.Int64())
	assert.True(t, result.Confirmed)
}

func TestDecodeRegistrationToleratesMissingEvent(t *testing.T) {
	c := testRegistryClient(t)

	// A confirmed mint whose receipt carries no decodable registration event
	// keeps its confirmed state with empty ids instead of becoming an error.
	result := &MintAndRegisterResult{Confirmed: true}
	c.decodeRegistration(result, &types.Receipt{})

	assert.True(t, result.Confirmed)
	assert.Equal(t, common.Address{}, result.IPAssetID)
	assert.Nil(t, result.TokenID)
}

func TestDecodeRegistrationSkipsForeignLogs(t *testing.T) {
	c := testRegistryClient(t)
	ipID := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	foreign := &types.Log{Topics: []common.Hash{common.HexToHash("0x01")}}
	receipt := &types.Receipt{Logs: []*types.Log{
		foreign,
		registrationLog(t, c, ipID, big.NewInt(7)),
	}}

	result := &MintAndRegisterResult{Confirmed: true}
	c.decodeRegistration(result, receipt)
	assert.Equal(t, ipID, result.IPAssetID)
	assert.Equal(t, int64(7), result.TokenID.Int64())
}
