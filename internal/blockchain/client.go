// internal/blockchain/client.go
package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/config"
)

// Minimal ABI fragments for the periphery workflow contracts. Only the
// entrypoints the orchestrator drives are declared.
const registrationWorkflowsABI = `[
	{"type":"function","name":"createCollection","stateMutability":"nonpayable",
	 "inputs":[{"name":"spgNftInitParams","type":"tuple","components":[
		{"name":"name","type":"string"},
		{"name":"symbol","type":"string"},
		{"name":"baseURI","type":"string"},
		{"name":"contractURI","type":"string"},
		{"name":"maxSupply","type":"uint32"},
		{"name":"mintFee","type":"uint256"},
		{"name":"mintFeeToken","type":"address"},
		{"name":"mintFeeRecipient","type":"address"},
		{"name":"owner","type":"address"},
		{"name":"mintOpen","type":"bool"},
		{"name":"isPublicMinting","type":"bool"}]}],
	 "outputs":[{"name":"spgNftContract","type":"address"}]},
	{"type":"function","name":"mintAndRegisterIp","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"spgNftContract","type":"address"},
		{"name":"recipient","type":"address"},
		{"name":"ipMetadata","type":"tuple","components":[
			{"name":"ipMetadataURI","type":"string"},
			{"name":"ipMetadataHash","type":"bytes32"},
			{"name":"nftMetadataURI","type":"string"},
			{"name":"nftMetadataHash","type":"bytes32"}]},
		{"name":"allowDuplicates","type":"bool"}],
	 "outputs":[{"name":"ipId","type":"address"},{"name":"tokenId","type":"uint256"}]},
	{"type":"event","name":"CollectionCreated","inputs":[
		{"name":"spgNftContract","type":"address","indexed":true}],"anonymous":false}
]`

const licensingModuleABI = `[
	{"type":"function","name":"attachLicenseTerms","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"ipId","type":"address"},
		{"name":"licenseTemplate","type":"address"},
		{"name":"licenseTermsId","type":"uint256"}],
	 "outputs":[]}
]`

const pilTemplateABI = `[
	{"type":"function","name":"registerLicenseTerms","stateMutability":"nonpayable",
	 "inputs":[{"name":"terms","type":"tuple","components":[
		{"name":"transferable","type":"bool"},
		{"name":"royaltyPolicy","type":"address"},
		{"name":"defaultMintingFee","type":"uint256"},
		{"name":"expiration","type":"uint256"},
		{"name":"commercialUse","type":"bool"},
		{"name":"commercialAttribution","type":"bool"},
		{"name":"commercializerChecker","type":"address"},
		{"name":"commercializerCheckerData","type":"bytes"},
		{"name":"commercialRevShare","type":"uint32"},
		{"name":"commercialRevCeiling","type":"uint256"},
		{"name":"derivativesAllowed","type":"bool"},
		{"name":"derivativesAttribution","type":"bool"},
		{"name":"derivativesApproval","type":"bool"},
		{"name":"derivativesReciprocal","type":"bool"},
		{"name":"derivativeRevCeiling","type":"uint256"},
		{"name":"currency","type":"address"},
		{"name":"uri","type":"string"}]}],
	 "outputs":[{"name":"licenseTermsId","type":"uint256"}]},
	{"type":"event","name":"LicenseTermsRegistered","inputs":[
		{"name":"licenseTermsId","type":"uint256","indexed":true},
		{"name":"licenseTemplate","type":"address","indexed":true},
		{"name":"licenseTerms","type":"bytes","indexed":false}],"anonymous":false}
]`

const ipAssetRegistryABI = `[
	{"type":"event","name":"IPRegistered","inputs":[
		{"name":"ipId","type":"address","indexed":false},
		{"name":"chainId","type":"uint256","indexed":true},
		{"name":"tokenContract","type":"address","indexed":true},
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"name","type":"string","indexed":false},
		{"name":"uri","type":"string","indexed":false},
		{"name":"registrationDate","type":"uint256","indexed":false}],"anonymous":false}
]`

// Client drives the Story Protocol contracts over JSON-RPC, signing with a
// service key.
type Client struct {
	eth            *ethclient.Client
	chainID        *big.Int
	signerKey      *ecdsa.PrivateKey
	receiptTimeout time.Duration

	registrationWorkflows *bind.BoundContract
	licensingModule       *bind.BoundContract
	pilTemplate           *bind.BoundContract
	pilTemplateAddr       common.Address

	workflowsABI abi.ABI
	pilABI       abi.ABI
	registryABI  abi.ABI
}

func NewClient(ctx context.Context, cfg config.StoryConfig) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNetwork, "failed to connect to story rpc", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, apperrors.Wrap(apperrors.KindNetwork, "failed to query chain id", err)
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		eth.Close()
		return nil, apperrors.Newf(apperrors.KindValidation,
			"connected chain id %d does not match configured chain id %d", chainID.Int64(), cfg.ChainID)
	}

	var key *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		key, err = crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			eth.Close()
			return nil, apperrors.Wrap(apperrors.KindValidation, "invalid signer private key", err)
		}
	}

	workflowsABI, err := abi.JSON(strings.NewReader(registrationWorkflowsABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registration workflows abi: %w", err)
	}
	licensingABI, err := abi.JSON(strings.NewReader(licensingModuleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse licensing module abi: %w", err)
	}
	pilABI, err := abi.JSON(strings.NewReader(pilTemplateABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pil template abi: %w", err)
	}
	registryABI, err := abi.JSON(strings.NewReader(ipAssetRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ip asset registry abi: %w", err)
	}

	workflowsAddr := common.HexToAddress(cfg.RegistrationWorkflows)
	licensingAddr := common.HexToAddress(cfg.LicensingModule)
	pilAddr := common.HexToAddress(cfg.PILicenseTemplate)

	c := &Client{
		eth:             eth,
		chainID:         chainID,
		signerKey:       key,
		receiptTimeout:  time.Duration(cfg.ReceiptTimeout) * time.Second,
		workflowsABI:    workflowsABI,
		pilABI:          pilABI,
		registryABI:     registryABI,
		pilTemplateAddr: pilAddr,
	}
	c.registrationWorkflows = bind.NewBoundContract(workflowsAddr, workflowsABI, eth, eth, eth)
	c.licensingModule = bind.NewBoundContract(licensingAddr, licensingABI, eth, eth, eth)
	c.pilTemplate = bind.NewBoundContract(pilAddr, pilABI, eth, eth, eth)

	return c, nil
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.signerKey == nil {
		return nil, apperrors.New(apperrors.KindAuthFailure, "no signer key configured for transactions")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.signerKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// waitReceipt polls for the transaction receipt within the configured
// deadline. A deadline miss is not an error: the transaction stays submitted
// and the caller reports the pending state.
func (c *Client) waitReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.eth, tx)
	if err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			logrus.WithField("tx", tx.Hash().Hex()).Warn("Receipt not observed before deadline, reporting submitted")
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindNetwork, "failed waiting for receipt", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, apperrors.Newf(apperrors.KindChainRejected, "transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

type spgInitParams struct {
	Name             string
	Symbol           string
	BaseURI          string
	ContractURI      string
	MaxSupply        uint32
	MintFee          *big.Int
	MintFeeToken     common.Address
	MintFeeRecipient common.Address
	Owner            common.Address
	MintOpen         bool
	IsPublicMinting  bool
}

func (c *Client) CreateCollection(ctx context.Context, params CollectionParams) (common.Address, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return common.Address{}, err
	}

	mintFee := params.MintFee
	if mintFee == nil {
		mintFee = big.NewInt(0)
	}

	tx, err := c.registrationWorkflows.Transact(opts, "createCollection", spgInitParams{
		Name:             params.Name,
		Symbol:           params.Symbol,
		ContractURI:      params.ContractURI,
		MaxSupply:        params.MaxSupply,
		MintFee:          mintFee,
		MintFeeToken:     params.MintFeeToken,
		MintFeeRecipient: params.MintFeeRecipient,
		Owner:            params.Owner,
		MintOpen:         params.MintOpen,
		IsPublicMinting:  params.IsPublicMinting,
	})
	if err != nil {
		return common.Address{}, classifyTxError("collection creation", err)
	}

	receipt, err := c.waitReceipt(ctx, tx)
	if err != nil {
		return common.Address{}, err
	}
	if receipt == nil {
		return common.Address{}, apperrors.New(apperrors.KindNetwork, "collection creation not confirmed in time")
	}

	created := c.workflowsABI.Events["CollectionCreated"]
	for _, vLog := range receipt.Logs {
		if len(vLog.Topics) > 0 && vLog.Topics[0] == created.ID {
			return common.BytesToAddress(vLog.Topics[1].Bytes()), nil
		}
	}
	return common.Address{}, apperrors.New(apperrors.KindInternal, "collection address not found in receipt logs")
}

type ipMetadataParams struct {
	IpMetadataURI   string
	IpMetadataHash  [32]byte
	NftMetadataURI  string
	NftMetadataHash [32]byte
}

func (c *Client) MintAndRegisterIP(ctx context.Context, params MintAndRegisterParams) (*MintAndRegisterResult, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := c.registrationWorkflows.Transact(opts, "mintAndRegisterIp",
		params.SPGNFTContract,
		params.Recipient,
		ipMetadataParams{
			IpMetadataURI:   params.IPMetadataURI,
			IpMetadataHash:  params.IPMetadataHash,
			NftMetadataURI:  params.NFTMetadataURI,
			NftMetadataHash: params.NFTMetadataHash,
		},
		params.AllowDuplicates,
	)
	if err != nil {
		return nil, classifyTxError("mint and register", err)
	}

	result := &MintAndRegisterResult{TxHash: tx.Hash()}

	receipt, err := c.waitReceipt(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		// Submitted but unconfirmed: surface the hash so the caller can
		// report a pending mint rather than a failure.
		return result, nil
	}

	result.Confirmed = true
	result.BlockNumber = receipt.BlockNumber.Int64()
	c.decodeRegistration(result, receipt)
	return result, nil
}

// decodeRegistration fills the ip and token ids from the receipt logs. The
// mint already succeeded on chain, so a receipt without a decodable
// registration event keeps the confirmed result with empty ids rather than
// failing the run.
func (c *Client) decodeRegistration(result *MintAndRegisterResult, receipt *types.Receipt) {
	registered := c.registryABI.Events["IPRegistered"]
	for _, vLog := range receipt.Logs {
		if len(vLog.Topics) < 4 || vLog.Topics[0] != registered.ID {
			continue
		}
		decoded, err := c.registryABI.Unpack("IPRegistered", vLog.Data)
		if err != nil {
			logrus.WithError(err).Warn("Failed to decode IPRegistered event data")
			continue
		}
		if ipID, ok := decoded[0].(common.Address); ok {
			result.IPAssetID = ipID
		}
		result.TokenID = new(big.Int).SetBytes(vLog.Topics[3].Bytes())
		return
	}
	logrus.WithField("tx", result.TxHash.Hex()).
		Warn("IP registration event not found in receipt logs")
}

func (c *Client) AttachLicenseTerms(ctx context.Context, ipAssetID common.Address, licenseTermsID *big.Int) error {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return err
	}

	tx, err := c.licensingModule.Transact(opts, "attachLicenseTerms", ipAssetID, c.pilTemplateAddr, licenseTermsID)
	if err != nil {
		return classifyTxError("license attach", err)
	}

	receipt, err := c.waitReceipt(ctx, tx)
	if err != nil {
		return err
	}
	if receipt == nil {
		return apperrors.New(apperrors.KindNetwork, "license attach not confirmed in time")
	}
	return nil
}

type pilTermsParams struct {
	Transferable              bool
	RoyaltyPolicy             common.Address
	DefaultMintingFee         *big.Int
	Expiration                *big.Int
	CommercialUse             bool
	CommercialAttribution     bool
	CommercializerChecker     common.Address
	CommercializerCheckerData []byte
	CommercialRevShare        uint32
	CommercialRevCeiling      *big.Int
	DerivativesAllowed        bool
	DerivativesAttribution    bool
	DerivativesApproval       bool
	DerivativesReciprocal     bool
	DerivativeRevCeiling      *big.Int
	Currency                  common.Address
	URI                       string
}

func (c *Client) RegisterCommercialUsePIL(ctx context.Context, params CommercialTermsParams) (*big.Int, error) {
	return c.registerPILTerms(ctx, pilTermsParams{
		Transferable:          true,
		DefaultMintingFee:     params.DefaultMintingFee,
		Expiration:            big.NewInt(0),
		CommercialUse:         true,
		CommercialAttribution: true,
		CommercialRevCeiling:  big.NewInt(0),
		DerivativeRevCeiling:  big.NewInt(0),
		Currency:              params.Currency,
	})
}

func (c *Client) RegisterCommercialRemixPIL(ctx context.Context, params CommercialTermsParams) (*big.Int, error) {
	return c.registerPILTerms(ctx, pilTermsParams{
		Transferable:           true,
		DefaultMintingFee:      params.DefaultMintingFee,
		Expiration:             big.NewInt(0),
		CommercialUse:          true,
		CommercialAttribution:  true,
		CommercialRevShare:     params.CommercialRevShare,
		CommercialRevCeiling:   big.NewInt(0),
		DerivativesAllowed:     true,
		DerivativesAttribution: true,
		DerivativesReciprocal:  true,
		DerivativeRevCeiling:   big.NewInt(0),
		Currency:               params.Currency,
	})
}

func (c *Client) registerPILTerms(ctx context.Context, terms pilTermsParams) (*big.Int, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	if terms.DefaultMintingFee == nil {
		terms.DefaultMintingFee = big.NewInt(0)
	}
	if terms.CommercializerCheckerData == nil {
		terms.CommercializerCheckerData = []byte{}
	}

	tx, err := c.pilTemplate.Transact(opts, "registerLicenseTerms", terms)
	if err != nil {
		return nil, classifyTxError("license terms registration", err)
	}

	receipt, err := c.waitReceipt(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperrors.New(apperrors.KindNetwork, "license terms registration not confirmed in time")
	}

	registered := c.pilABI.Events["LicenseTermsRegistered"]
	for _, vLog := range receipt.Logs {
		if len(vLog.Topics) > 1 && vLog.Topics[0] == registered.ID {
			return new(big.Int).SetBytes(vLog.Topics[1].Bytes()), nil
		}
	}
	return nil, apperrors.New(apperrors.KindInternal, "license terms id not found in receipt logs")
}

// classifyTxError maps RPC failures into the error-kind taxonomy at the
// boundary, so orchestration code never inspects message text.
func classifyTxError(step string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "CallerNotAuthorizedToMint") || strings.Contains(msg, "unauthorized"):
		return apperrors.Wrap(apperrors.KindAccessDenied,
			fmt.Sprintf("%s rejected: the signer is not authorized to mint on this collection", step), err)
	case strings.Contains(msg, "insufficient funds"):
		return apperrors.Wrap(apperrors.KindChainRejected,
			fmt.Sprintf("%s rejected: signer has insufficient funds for gas", step), err)
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "no such host") || strings.Contains(msg, "EOF"):
		return apperrors.Wrap(apperrors.KindNetwork,
			fmt.Sprintf("network connection failed during %s. Please check your connection and try again", step), err)
	default:
		return apperrors.Wrap(apperrors.KindChainRejected, fmt.Sprintf("%s failed", step), err)
	}
}
