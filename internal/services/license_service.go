// internal/services/license_service.go
package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/models"
)

// LicenseService resolves PIL template selections into concrete policy
// terms. The catalog lives in the database but degrades to the static
// default table when the backing table is unavailable.
type LicenseService struct {
	db *gorm.DB
}

func NewLicenseService(db *gorm.DB) *LicenseService {
	return &LicenseService{db: db}
}

// CustomTermsOverride carries field-level overrides for the "custom"
// template. Nil pointers leave the base field untouched.
type CustomTermsOverride struct {
	CommercialUse          *bool    `json:"commercial_use,omitempty"`
	CommercialAttribution  *bool    `json:"commercial_attribution,omitempty"`
	CommercialRevShare     *float64 `json:"commercial_rev_share,omitempty"`
	DerivativesAllowed     *bool    `json:"derivatives_allowed,omitempty"`
	DerivativesAttribution *bool    `json:"derivatives_attribution,omitempty"`
	DerivativesApproval    *bool    `json:"derivatives_approval,omitempty"`
	DerivativesReciprocal  *bool    `json:"derivatives_reciprocal,omitempty"`
	DistributionChannels   []string `json:"distribution_channels,omitempty"`
}

// ListTemplates returns the template catalog. A missing pil_terms table is
// not an error: the static defaults are served instead.
func (s *LicenseService) ListTemplates(ctx context.Context) []models.PILTemplate {
	var templates []models.PILTemplate
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&templates).Error; err != nil {
		logrus.WithError(err).Warn("Failed to load license templates from database, serving static defaults")
		return models.DefaultPILTemplates
	}
	if len(templates) == 0 {
		return models.DefaultPILTemplates
	}
	return templates
}

// ResolveTemplate maps a template id to its policy terms, applying custom
// overrides when the custom template is selected.
func (s *LicenseService) ResolveTemplate(id models.TemplateID, overrides *CustomTermsOverride) (*models.PILTemplate, error) {
	template := models.FindDefaultTemplate(id)
	if template == nil {
		return nil, apperrors.Newf(apperrors.KindValidation, "unknown license template %q", id)
	}

	if id == models.TemplateCustom && overrides != nil {
		// Rev share is sent on chain as uint32 basis points, so it has to be
		// a sane percentage before it gets anywhere near the conversion.
		if o := overrides.CommercialRevShare; o != nil && (*o < 0 || *o > 100) {
			return nil, apperrors.Newf(apperrors.KindValidation,
				"commercial revenue share %v is out of range, must be between 0 and 100", *o)
		}
		applyOverrides(template, overrides)
	} else if id != models.TemplateCustom && overrides != nil {
		return nil, apperrors.Newf(apperrors.KindValidation,
			"field overrides are only accepted for the %q template", models.TemplateCustom)
	}

	return template, nil
}

func applyOverrides(t *models.PILTemplate, o *CustomTermsOverride) {
	if o.CommercialUse != nil {
		t.CommercialUse = *o.CommercialUse
	}
	if o.CommercialAttribution != nil {
		t.CommercialAttribution = *o.CommercialAttribution
	}
	if o.CommercialRevShare != nil {
		t.CommercialRevShare = *o.CommercialRevShare
	}
	if o.DerivativesAllowed != nil {
		t.DerivativesAllowed = *o.DerivativesAllowed
	}
	if o.DerivativesAttribution != nil {
		t.DerivativesAttribution = *o.DerivativesAttribution
	}
	if o.DerivativesApproval != nil {
		t.DerivativesApproval = *o.DerivativesApproval
	}
	if o.DerivativesReciprocal != nil {
		t.DerivativesReciprocal = *o.DerivativesReciprocal
	}
	if o.DistributionChannels != nil {
		t.DistributionChannels = o.DistributionChannels
	}
}

// RequiresOnChainRegistration reports whether attaching this template needs
// a fresh on-chain terms registration, or can reuse the protocol default.
func (s *LicenseService) RequiresOnChainRegistration(t *models.PILTemplate) bool {
	return t.CommercialUse
}
