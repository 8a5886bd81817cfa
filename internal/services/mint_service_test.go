// internal/services/mint_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/blockchain"
	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/models"
	"github.com/storymint/storymint-backend/internal/workflow"
)

type fakePublisher struct {
	calls int
	fail  bool
}

func (f *fakePublisher) PublishJSON(ctx context.Context, doc interface{}) (string, error) {
	if f.fail {
		return "", apperrors.New(apperrors.KindNetwork, "pinning service unreachable")
	}
	f.calls++
	return fmt.Sprintf("QmFake%d", f.calls), nil
}

func (f *fakePublisher) URI(cid string) string {
	return "ipfs://" + cid
}

func (f *fakePublisher) GatewayURL(cid string) string {
	return "https://gateway.example.com/ipfs/" + cid
}

type fakeChain struct {
	mintCalls       int
	attachCalls     int
	collectionCalls int
	registeredRemix int
	registeredUse   int

	attachErr     error
	collectionErr error
	confirmed     bool

	attachedTermsIDs []*big.Int
	lastMintParams   blockchain.MintAndRegisterParams
}

func (f *fakeChain) CreateCollection(ctx context.Context, params blockchain.CollectionParams) (common.Address, error) {
	f.collectionCalls++
	if f.collectionErr != nil {
		return common.Address{}, f.collectionErr
	}
	return common.HexToAddress("0x00000000000000000000000000000000000000c1"), nil
}

func (f *fakeChain) MintAndRegisterIP(ctx context.Context, params blockchain.MintAndRegisterParams) (*blockchain.MintAndRegisterResult, error) {
	f.mintCalls++
	f.lastMintParams = params
	return &blockchain.MintAndRegisterResult{
		IPAssetID:   common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		TokenID:     big.NewInt(42),
		TxHash:      common.HexToHash("0xabc"),
		BlockNumber: 1514000,
		Confirmed:   f.confirmed,
	}, nil
}

func (f *fakeChain) AttachLicenseTerms(ctx context.Context, ipAssetID common.Address, licenseTermsID *big.Int) error {
	f.attachCalls++
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attachedTermsIDs = append(f.attachedTermsIDs, licenseTermsID)
	return nil
}

func (f *fakeChain) RegisterCommercialUsePIL(ctx context.Context, params blockchain.CommercialTermsParams) (*big.Int, error) {
	f.registeredUse++
	return big.NewInt(55), nil
}

func (f *fakeChain) RegisterCommercialRemixPIL(ctx context.Context, params blockchain.CommercialTermsParams) (*big.Int, error) {
	f.registeredRemix++
	return big.NewInt(77), nil
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1514), nil
}

func (f *fakeChain) Close() {}

type fakeStore struct {
	saved []*models.AssetRecord
	err   error
}

func (f *fakeStore) Save(ctx context.Context, record *models.AssetRecord) (*models.AssetRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, record)
	return record, nil
}

func testMintService(publisher *fakePublisher, chain *fakeChain, store *fakeStore) *MintService {
	cfg := &config.Config{
		Story: config.StoryConfig{
			ChainID:         1514,
			WIPToken:        "0x1514000000000000000000000000000000000000",
			ExplorerBaseURL: "https://explorer.story.foundation",
			SignTimeout:     5,
			ReceiptTimeout:  5,
		},
	}
	return NewMintService(cfg, NewMetadataService(), publisher, chain,
		NewLicenseService(nil), store, NewGroupService(nil))
}

func testMintRequest() MintRequest {
	return MintRequest{
		Asset: AssetInput{
			Name:        "Test Asset",
			Description: "An asset minted in a test",
		},
		File: UploadedFileInfo{
			URL:      "https://cdn.example.com/ip-assets/1700000000000_abc.jpg",
			Key:      "ip-assets/1700000000000_abc.jpg",
			SHA256:   "deadbeef",
			MimeType: "image/jpeg",
			Filename: "photo.jpg",
			Size:     2 * 1024 * 1024,
		},
		TemplateID: models.TemplateNonCommercial,
	}
}

const testWallet = "0x1234567890abcdef1234567890abcdef12345678"

func TestMintHappyPathNonCommercial(t *testing.T) {
	publisher := &fakePublisher{}
	chain := &fakeChain{confirmed: true}
	store := &fakeStore{}
	svc := testMintService(publisher, chain, store)

	resp, err := svc.Mint(context.Background(), testWallet, testMintRequest())
	assert.NoError(t, err)

	// Two publishes: one per metadata document.
	assert.Equal(t, 2, publisher.calls)
	assert.Equal(t, 1, chain.mintCalls)

	// The cheap attach path reuses the protocol default terms id.
	assert.Equal(t, 1, chain.attachCalls)
	assert.Equal(t, int64(1), chain.attachedTermsIDs[0].Int64())
	assert.Equal(t, models.DefaultLicenseTermsID, resp.LicenseTermsID)
	assert.Zero(t, chain.registeredUse)
	assert.Zero(t, chain.registeredRemix)

	assert.Equal(t, workflow.StatusSuccess, resp.Status)
	assert.True(t, resp.Confirmed)
	assert.Equal(t, "42", resp.TokenID)
	assert.Contains(t, resp.ExplorerURL, "/ipa/0x")

	// One persisted record whose media category inferred to image.
	assert.Len(t, store.saved, 1)
	assert.Equal(t, "image", store.saved[0].IPType)
	assert.Equal(t, "deadbeef", store.saved[0].FileHash)
	assert.Equal(t, "42", store.saved[0].TokenID)
}

func TestMintSucceedsWhenLicenseAttachFails(t *testing.T) {
	publisher := &fakePublisher{}
	chain := &fakeChain{confirmed: true, attachErr: errors.New("licensing module reverted")}
	store := &fakeStore{}
	svc := testMintService(publisher, chain, store)

	resp, err := svc.Mint(context.Background(), testWallet, testMintRequest())
	assert.NoError(t, err, "license attach failure must not fail the mint")

	assert.Equal(t, workflow.StatusSuccess, resp.Status)
	assert.Equal(t, models.SentinelLicenseTermsID, resp.LicenseTermsID)
	assert.Len(t, store.saved, 1)
	assert.Equal(t, models.SentinelLicenseTermsID, store.saved[0].LicenseTermsID)
}

func TestMintCommercialRemixRegistersNewTerms(t *testing.T) {
	publisher := &fakePublisher{}
	chain := &fakeChain{confirmed: true}
	store := &fakeStore{}
	svc := testMintService(publisher, chain, store)

	req := testMintRequest()
	req.TemplateID = models.TemplateCommercialRemix

	resp, err := svc.Mint(context.Background(), testWallet, req)
	assert.NoError(t, err)

	assert.Equal(t, 1, chain.registeredRemix)
	assert.Zero(t, chain.registeredUse)
	assert.Equal(t, 1, chain.attachCalls)
	assert.Equal(t, "77", resp.LicenseTermsID)
	assert.Equal(t, float64(15), store.saved[0].LicenseRevenueShare)
}

func TestMintValidationErrorsBlockBeforeAnyNetworkWrite(t *testing.T) {
	publisher := &fakePublisher{}
	chain := &fakeChain{confirmed: true}
	store := &fakeStore{}
	svc := testMintService(publisher, chain, store)

	req := testMintRequest()
	req.Asset.Name = ""

	_, err := svc.Mint(context.Background(), testWallet, req)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	assert.Zero(t, publisher.calls)
	assert.Zero(t, chain.mintCalls)
	assert.Empty(t, store.saved)
}

func TestMintUnconfirmedReportsPending(t *testing.T) {
	publisher := &fakePublisher{}
	chain := &fakeChain{confirmed: false}
	store := &fakeStore{}
	svc := testMintService(publisher, chain, store)

	resp, err := svc.Mint(context.Background(), testWallet, testMintRequest())
	assert.NoError(t, err)

	assert.Equal(t, workflow.StatusPending, resp.Status)
	assert.False(t, resp.Confirmed)
	assert.NotEmpty(t, resp.TransactionHash)
	// The record is still written: the merge step dedupes by token id later.
	assert.Len(t, store.saved, 1)
}

func TestMintSucceedsWhenPersistenceFails(t *testing.T) {
	publisher := &fakePublisher{}
	chain := &fakeChain{confirmed: true}
	store := &fakeStore{err: errors.New("relation asset_metadata does not exist")}
	svc := testMintService(publisher, chain, store)

	resp, err := svc.Mint(context.Background(), testWallet, testMintRequest())
	assert.NoError(t, err, "persistence failure must not fail the mint")

	assert.Equal(t, workflow.StatusSuccess, resp.Status)
	assert.NotNil(t, resp.Record, "the in-memory record is returned as fallback")
	assert.Equal(t, "Test Asset", resp.Record.AssetName)
}

func TestMintCollectionFailureFallsBackToZeroAddress(t *testing.T) {
	publisher := &fakePublisher{}
	chain := &fakeChain{confirmed: true, collectionErr: errors.New("deploy reverted")}
	store := &fakeStore{}
	svc := testMintService(publisher, chain, store)

	req := testMintRequest()
	req.Collection = &CollectionInput{Name: "My Collection", Symbol: "MC"}

	resp, err := svc.Mint(context.Background(), testWallet, req)
	assert.NoError(t, err)

	assert.Equal(t, 1, chain.collectionCalls)
	assert.Equal(t, common.Address{}, chain.lastMintParams.SPGNFTContract,
		"a failed collection pre-step degrades to the zero address")
	assert.Equal(t, workflow.StatusSuccess, resp.Status)
}

func TestMintPublishFailureIsTerminal(t *testing.T) {
	publisher := &fakePublisher{fail: true}
	chain := &fakeChain{confirmed: true}
	store := &fakeStore{}
	svc := testMintService(publisher, chain, store)

	_, err := svc.Mint(context.Background(), testWallet, testMintRequest())
	assert.Error(t, err)
	assert.Zero(t, chain.mintCalls, "mint must not run when publishing failed")
	assert.Empty(t, store.saved)
}

func TestExplorerURL(t *testing.T) {
	svc := testMintService(&fakePublisher{}, &fakeChain{}, &fakeStore{})
	assert.Equal(t,
		"https://explorer.story.foundation/ipa/0xAA",
		svc.ExplorerURL("0xAA"))
}
