// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// MediaCategory is the coarse display classification inferred for an asset.
type MediaCategory string

const (
	MediaCategoryImage    MediaCategory = "image"
	MediaCategoryAudio    MediaCategory = "audio"
	MediaCategoryVideo    MediaCategory = "video"
	MediaCategoryDocument MediaCategory = "document"
)

// TemplateID identifies one of the fixed PIL license templates.
type TemplateID string

const (
	TemplateNonCommercial   TemplateID = "non-commercial"
	TemplateCommercial      TemplateID = "commercial"
	TemplateCommercialRemix TemplateID = "commercial-remix"
	TemplatePublicDomain    TemplateID = "public-domain"
	TemplateAttributionOnly TemplateID = "attribution-only"
	TemplateCustom          TemplateID = "custom"
)

// DefaultLicenseTermsID is the protocol-level terms id attached for the
// non-commercial template without registering new terms on chain.
const DefaultLicenseTermsID = "1"

// SentinelLicenseTermsID records that license attachment failed and the
// asset fell back to unspecified terms.
const SentinelLicenseTermsID = "default"
