// internal/blockchain/types.go
package blockchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CollectionParams describes the SPG NFT collection created as the minting
// target for a creator's assets.
type CollectionParams struct {
	Name             string
	Symbol           string
	MaxSupply        uint32
	MintFee          *big.Int
	MintFeeToken     common.Address
	MintFeeRecipient common.Address
	Owner            common.Address
	IsPublicMinting  bool
	MintOpen         bool
	ContractURI      string
}

// MintAndRegisterParams carries the published metadata addresses and their
// keccak digests for the combined mint-and-register call.
type MintAndRegisterParams struct {
	SPGNFTContract  common.Address
	Recipient       common.Address
	IPMetadataURI   string
	IPMetadataHash  [32]byte
	NFTMetadataURI  string
	NFTMetadataHash [32]byte
	AllowDuplicates bool
}

// MintAndRegisterResult is the decoded outcome of a successful mint.
type MintAndRegisterResult struct {
	IPAssetID   common.Address
	TokenID     *big.Int
	TxHash      common.Hash
	BlockNumber int64
	// Confirmed is false when the transaction was submitted but the receipt
	// was not observed before the polling deadline.
	Confirmed bool
}

// CommercialTermsParams configures a newly registered commercial PIL record.
type CommercialTermsParams struct {
	DefaultMintingFee  *big.Int
	CommercialRevShare uint32 // basis points
	Currency           common.Address
}

// StoryClient is the remote-procedure surface of the Story Protocol contracts
// the orchestrator drives. Implementations own signing and receipt handling.
type StoryClient interface {
	// CreateCollection deploys a per-creator SPG NFT collection.
	CreateCollection(ctx context.Context, params CollectionParams) (common.Address, error)

	// MintAndRegisterIP mints a token into the collection and registers it as
	// an IP asset bound to the published metadata.
	MintAndRegisterIP(ctx context.Context, params MintAndRegisterParams) (*MintAndRegisterResult, error)

	// AttachLicenseTerms attaches an existing license-terms record to an IP asset.
	AttachLicenseTerms(ctx context.Context, ipAssetID common.Address, licenseTermsID *big.Int) error

	// RegisterCommercialUsePIL registers new commercial-use terms and returns their id.
	RegisterCommercialUsePIL(ctx context.Context, params CommercialTermsParams) (*big.Int, error)

	// RegisterCommercialRemixPIL registers new commercial-remix terms and returns their id.
	RegisterCommercialRemixPIL(ctx context.Context, params CommercialTermsParams) (*big.Int, error)

	// ChainID returns the connected chain id, used to reject misconfigured RPC targets.
	ChainID(ctx context.Context) (*big.Int, error)

	// Close releases the underlying RPC connection.
	Close()
}
