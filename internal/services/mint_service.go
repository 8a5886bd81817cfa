// internal/services/mint_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/blockchain"
	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/ipfs"
	"github.com/storymint/storymint-backend/internal/metrics"
	"github.com/storymint/storymint-backend/internal/models"
	"github.com/storymint/storymint-backend/internal/workflow"
)

// MintService drives the full mint-and-register sequence: compose and
// validate metadata, publish it, mint on chain, then run the three
// best-effort sub-steps (collection, license attach, persistence).
type MintService struct {
	config    *config.Config
	metadata  *MetadataService
	publisher ipfs.Publisher
	chain     blockchain.StoryClient
	licenses  *LicenseService
	assets    AssetStore
	groups    *GroupService
}

func NewMintService(
	cfg *config.Config,
	metadata *MetadataService,
	publisher ipfs.Publisher,
	chain blockchain.StoryClient,
	licenses *LicenseService,
	assets AssetStore,
	groups *GroupService,
) *MintService {
	return &MintService{
		config:    cfg,
		metadata:  metadata,
		publisher: publisher,
		chain:     chain,
		licenses:  licenses,
		assets:    assets,
		groups:    groups,
	}
}

// UploadedFileInfo references the file already placed in object storage by
// the upload endpoint.
type UploadedFileInfo struct {
	URL      string `json:"url" binding:"required"`
	Key      string `json:"key"`
	SHA256   string `json:"sha256" binding:"required"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type CollectionInput struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

// MintRequest is the orchestrator input assembled by the mint endpoint.
type MintRequest struct {
	Asset      AssetInput           `json:"asset" binding:"required"`
	File       UploadedFileInfo     `json:"file" binding:"required"`
	TemplateID models.TemplateID    `json:"template_id" binding:"required"`
	Custom     *CustomTermsOverride `json:"custom_terms,omitempty"`
	Collection *CollectionInput     `json:"collection,omitempty"`
	GroupID    string               `json:"group_id,omitempty"`
}

// MintResponse reports the terminal (or pending) state of one run.
type MintResponse struct {
	Status          workflow.Status     `json:"status"`
	TokenID         string              `json:"token_id,omitempty"`
	IPAssetID       string              `json:"ip_asset_id,omitempty"`
	TransactionHash string              `json:"transaction_hash,omitempty"`
	IPMetadataURI   string              `json:"ip_metadata_uri,omitempty"`
	NFTMetadataURI  string              `json:"nft_metadata_uri,omitempty"`
	LicenseTermsID  string              `json:"license_terms_id,omitempty"`
	ExplorerURL     string              `json:"explorer_url,omitempty"`
	Confirmed       bool                `json:"confirmed"`
	Warnings        []string            `json:"warnings,omitempty"`
	Record          *models.AssetRecord `json:"record,omitempty"`
}

// Mint runs the workflow. Metadata validation errors block the run before
// any network write; once the mint transaction succeeds, no later sub-step
// failure can turn the result into an error.
func (s *MintService) Mint(ctx context.Context, walletAddress string, req MintRequest) (*MintResponse, error) {
	log := logrus.WithFields(logrus.Fields{
		"wallet": walletAddress,
		"asset":  req.Asset.Name,
	})

	tracker := workflow.NewTracker(func(status workflow.Status) {
		log.WithField("status", status).Info("Mint workflow status changed")
	})

	tracker.Advance(workflow.StatusPreparing)

	template, err := s.licenses.ResolveTemplate(req.TemplateID, req.Custom)
	if err != nil {
		tracker.Fail(err.Error())
		return nil, err
	}

	req.Asset.CreatorAddress = walletAddress
	uploaded := &UploadResult{
		URL:      req.File.URL,
		Key:      req.File.Key,
		Size:     req.File.Size,
		MimeType: req.File.MimeType,
		SHA256:   req.File.SHA256,
	}
	doc := s.metadata.Compose(req.Asset, uploaded, req.File.Filename)

	report := s.metadata.Validate(doc)
	for _, warning := range report.Warnings {
		log.WithField("warning", warning).Warn("Metadata validation warning")
	}
	if !report.Valid() {
		err := apperrors.Newf(apperrors.KindValidation,
			"metadata validation failed: %s", strings.Join(report.Errors, "; "))
		tracker.Fail(err.Error())
		metrics.IncMintOutcome("validation_rejected")
		return nil, err
	}

	ipCID, err := s.publisher.PublishJSON(ctx, doc.IP)
	if err != nil {
		tracker.Fail(err.Error())
		metrics.IncMintOutcome("error")
		return nil, err
	}
	nftCID, err := s.publisher.PublishJSON(ctx, doc.NFT)
	if err != nil {
		tracker.Fail(err.Error())
		metrics.IncMintOutcome("error")
		return nil, err
	}

	ipURI := s.publisher.URI(ipCID)
	nftURI := s.publisher.URI(nftCID)
	log.WithFields(logrus.Fields{
		"ip_metadata":  s.publisher.GatewayURL(ipCID),
		"nft_metadata": s.publisher.GatewayURL(nftCID),
	}).Info("Metadata published")

	ipHash, err := blockchain.MetadataHash(doc.IP)
	if err != nil {
		tracker.Fail(err.Error())
		metrics.IncMintOutcome("error")
		return nil, err
	}
	nftHash, err := blockchain.MetadataHash(doc.NFT)
	if err != nil {
		tracker.Fail(err.Error())
		metrics.IncMintOutcome("error")
		return nil, err
	}

	recipient := common.HexToAddress(walletAddress)

	// Collection creation is best-effort: the zero address tells the mint
	// call to fall back to the shared public collection.
	collection := common.Address{}
	if req.Collection != nil && req.Collection.Name != "" {
		collection = workflow.Optional(ctx, "collection creation", common.Address{},
			func(ctx context.Context) (common.Address, error) {
				return s.chain.CreateCollection(ctx, blockchain.CollectionParams{
					Name:             req.Collection.Name,
					Symbol:           req.Collection.Symbol,
					MaxSupply:        10000,
					MintFee:          big.NewInt(0),
					MintFeeToken:     common.HexToAddress(s.config.Story.WIPToken),
					MintFeeRecipient: recipient,
					Owner:            recipient,
					IsPublicMinting:  true,
					MintOpen:         true,
				})
			})
	}

	tracker.Advance(workflow.StatusSigning)

	signCtx, cancelSign := context.WithTimeout(ctx, time.Duration(s.config.Story.SignTimeout)*time.Second)
	defer cancelSign()

	mintResult, err := s.chain.MintAndRegisterIP(signCtx, blockchain.MintAndRegisterParams{
		SPGNFTContract:  collection,
		Recipient:       recipient,
		IPMetadataURI:   ipURI,
		IPMetadataHash:  ipHash,
		NFTMetadataURI:  nftURI,
		NFTMetadataHash: nftHash,
		AllowDuplicates: true,
	})
	if err != nil {
		tracker.Fail(err.Error())
		metrics.IncMintOutcome("error")
		return nil, err
	}

	tracker.Advance(workflow.StatusPending)

	// The license attach is secondary to the expensive, user-signed mint:
	// its failure degrades to the sentinel terms id and a warning.
	licenseTermsID := models.SentinelLicenseTermsID
	if mintResult.IPAssetID != (common.Address{}) {
		licenseTermsID = workflow.Optional(ctx, "license attach", models.SentinelLicenseTermsID,
			func(ctx context.Context) (string, error) {
				return s.attachLicense(ctx, mintResult.IPAssetID, template)
			})
	}

	record := s.buildRecord(walletAddress, req, doc, uploaded, mintResult, template, licenseTermsID, ipURI, nftURI)

	persisted := workflow.Optional(ctx, "persistence write", record,
		func(ctx context.Context) (*models.AssetRecord, error) {
			return s.assets.Save(ctx, record)
		})
	s.groups.RecordMembership(ctx, req.GroupID)

	status := workflow.StatusPending
	if mintResult.Confirmed {
		tracker.Advance(workflow.StatusSuccess)
		status = workflow.StatusSuccess
		metrics.IncMintOutcome("success")
	} else {
		metrics.IncMintOutcome("pending")
	}

	response := &MintResponse{
		Status:          status,
		TransactionHash: mintResult.TxHash.Hex(),
		IPMetadataURI:   ipURI,
		NFTMetadataURI:  nftURI,
		LicenseTermsID:  licenseTermsID,
		Confirmed:       mintResult.Confirmed,
		Warnings:        report.Warnings,
		Record:          persisted,
	}
	if mintResult.TokenID != nil {
		response.TokenID = mintResult.TokenID.String()
	}
	if mintResult.IPAssetID != (common.Address{}) {
		response.IPAssetID = mintResult.IPAssetID.Hex()
		response.ExplorerURL = s.ExplorerURL(mintResult.IPAssetID.Hex())
	}
	return response, nil
}

// attachLicense picks the cheap path for templates covered by the protocol
// default terms, or registers fresh commercial terms first.
func (s *MintService) attachLicense(ctx context.Context, ipAssetID common.Address, template *models.PILTemplate) (string, error) {
	if !s.licenses.RequiresOnChainRegistration(template) {
		termsID, ok := new(big.Int).SetString(models.DefaultLicenseTermsID, 10)
		if !ok {
			return "", apperrors.New(apperrors.KindInternal, "malformed default license terms id")
		}
		if err := s.chain.AttachLicenseTerms(ctx, ipAssetID, termsID); err != nil {
			return "", err
		}
		return models.DefaultLicenseTermsID, nil
	}

	params := blockchain.CommercialTermsParams{
		DefaultMintingFee:  big.NewInt(0),
		CommercialRevShare: uint32(template.CommercialRevShare * 100), // basis points
		Currency:           common.HexToAddress(s.config.Story.WIPToken),
	}

	var termsID *big.Int
	var err error
	if template.DerivativesReciprocal {
		termsID, err = s.chain.RegisterCommercialRemixPIL(ctx, params)
	} else {
		termsID, err = s.chain.RegisterCommercialUsePIL(ctx, params)
	}
	if err != nil {
		return "", err
	}

	if err := s.chain.AttachLicenseTerms(ctx, ipAssetID, termsID); err != nil {
		return "", err
	}
	return termsID.String(), nil
}

func (s *MintService) buildRecord(
	walletAddress string,
	req MintRequest,
	doc *StoryMetadata,
	uploaded *UploadResult,
	mintResult *blockchain.MintAndRegisterResult,
	template *models.PILTemplate,
	licenseTermsID string,
	ipURI, nftURI string,
) *models.AssetRecord {
	record := &models.AssetRecord{
		AssetName:   req.Asset.Name,
		Description: req.Asset.Description,
		ExternalURL: req.Asset.ExternalURL,

		ImageURL:      uploaded.URL,
		FileURL:       uploaded.URL,
		FileHash:      uploaded.SHA256,
		MediaFileURL:  uploaded.URL,
		MediaFileHash: uploaded.SHA256,
		MediaFileType: uploaded.MimeType,

		IPMetadataURI:  ipURI,
		NFTMetadataURI: nftURI,
		IPMetadata:     toJSONB(doc.IP),
		NFTMetadata:    toJSONB(doc.NFT),

		TransactionHash: mintResult.TxHash.Hex(),
		BlockNumber:     mintResult.BlockNumber,
		Network:         "story",
		CreatorAddress:  walletAddress,

		IPType:     string(doc.IP.IPType),
		Tags:       pq.StringArray(req.Asset.Tags),
		Attributes: attributesJSONB(req.Asset.Attributes),

		LicenseCommercialUse: template.CommercialUse,
		LicenseDerivatives:   template.DerivativesAllowed,
		LicenseAttribution:   template.CommercialAttribution || template.DerivativesAttribution,
		LicenseRevenueShare:  template.CommercialRevShare,
		PILTemplateID:        template.PILTermsID,
		LicenseTermsID:       licenseTermsID,

		GroupID: req.GroupID,
	}

	if doc.IP.IPType == models.MediaCategoryImage {
		record.CoverImageURL = uploaded.URL
		record.CoverImageHash = uploaded.SHA256
	}
	if req.Collection != nil {
		record.CollectionName = req.Collection.Name
		record.CollectionSymbol = req.Collection.Symbol
		record.CollectionDescription = req.Collection.Description
	}
	if mintResult.TokenID != nil {
		record.TokenID = mintResult.TokenID.String()
	}
	if mintResult.IPAssetID != (common.Address{}) {
		record.IPAssetID = mintResult.IPAssetID.Hex()
	}
	return record
}

// ExplorerURL derives the public explorer page for an IP asset id.
func (s *MintService) ExplorerURL(ipAssetID string) string {
	return fmt.Sprintf("%s/ipa/%s", strings.TrimSuffix(s.config.Story.ExplorerBaseURL, "/"), ipAssetID)
}

func toJSONB(doc interface{}) models.JSONB {
	raw, err := json.Marshal(doc)
	if err != nil {
		logrus.WithError(err).Warn("Failed to serialize metadata document for persistence")
		return nil
	}
	var out models.JSONB
	if err := json.Unmarshal(raw, &out); err != nil {
		logrus.WithError(err).Warn("Failed to decode metadata document for persistence")
		return nil
	}
	return out
}

func attributesJSONB(attrs []models.Attribute) models.JSONB {
	if len(attrs) == 0 {
		return nil
	}
	return models.JSONB{"attributes": attrs}
}
