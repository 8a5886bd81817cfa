// internal/models/asset.go
package models

import (
	"github.com/lib/pq"
)

// AssetRecord is the denormalized row written after a successful mint. It
// joins form metadata, storage references, published metadata URIs and the
// on-chain identifiers under one record keyed by token id.
type AssetRecord struct {
	BaseModel
	AssetName   string `json:"asset_name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
	ExternalURL string `json:"external_url,omitempty" gorm:"size:2048"`

	// Storage references
	ImageURL       string `json:"image_url,omitempty" gorm:"size:2048"`
	FileURL        string `json:"file_url,omitempty" gorm:"size:2048"`
	FileHash       string `json:"file_hash,omitempty" gorm:"size:64"`
	CoverImageURL  string `json:"cover_image_url,omitempty" gorm:"size:2048"`
	CoverImageHash string `json:"cover_image_hash,omitempty" gorm:"size:64"`
	MediaFileURL   string `json:"media_file_url,omitempty" gorm:"size:2048"`
	MediaFileHash  string `json:"media_file_hash,omitempty" gorm:"size:64"`
	MediaFileType  string `json:"media_file_type,omitempty" gorm:"size:100"`

	// Published metadata
	IPMetadataURI  string `json:"ip_metadata_uri,omitempty" gorm:"size:2048"`
	NFTMetadataURI string `json:"nft_metadata_uri,omitempty" gorm:"size:2048"`
	IPMetadata     JSONB  `json:"ip_metadata,omitempty" gorm:"type:jsonb"`
	NFTMetadata    JSONB  `json:"nft_metadata,omitempty" gorm:"type:jsonb"`

	// On-chain identifiers
	TokenID         string `json:"token_id,omitempty" gorm:"size:78;index"`
	IPAssetID       string `json:"ip_asset_id,omitempty" gorm:"size:66;index"`
	TransactionHash string `json:"transaction_hash,omitempty" gorm:"size:66"`
	BlockNumber     int64  `json:"block_number,omitempty"`
	Network         string `json:"network,omitempty" gorm:"size:50"`

	CreatorAddress string `json:"creator_address" gorm:"size:42;index"`

	// Collection descriptor
	CollectionName        string `json:"collection_name,omitempty" gorm:"size:255"`
	CollectionSymbol      string `json:"collection_symbol,omitempty" gorm:"size:20"`
	CollectionDescription string `json:"collection_description,omitempty" gorm:"type:text"`
	PublicMinting         bool   `json:"public_minting" gorm:"default:true"`

	IPType     string         `json:"ip_type,omitempty" gorm:"size:20"`
	Tags       pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	Attributes JSONB          `json:"attributes,omitempty" gorm:"type:jsonb"`

	// License denormalization
	LicenseCommercialUse bool       `json:"license_commercial_use"`
	LicenseDerivatives   bool       `json:"license_derivatives"`
	LicenseAttribution   bool       `json:"license_attribution"`
	LicenseRevenueShare  float64    `json:"license_revenue_share" gorm:"type:decimal(5,2);default:0"`
	PILTemplateID        TemplateID `json:"pil_template_id,omitempty" gorm:"size:50;index"`
	LicenseTermsID       string     `json:"license_terms_id,omitempty" gorm:"size:78"`

	GroupID string `json:"group_id,omitempty" gorm:"size:100;index"`
}

func (AssetRecord) TableName() string {
	return "asset_metadata"
}

// Attribute is one trait/value pair of the NFT metadata attribute list.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}
