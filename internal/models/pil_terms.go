// internal/models/pil_terms.go
package models

import (
	"github.com/lib/pq"
)

// PILTemplate is one row of the fixed license-template catalog. The six
// defaults are seeded at migration time; "custom" rows accept field-level
// overrides at compose time without being rewritten here.
type PILTemplate struct {
	BaseModel
	PILTermsID              TemplateID     `json:"pil_terms_id" gorm:"size:50;uniqueIndex;not null"`
	Name                    string         `json:"name" gorm:"size:255;not null"`
	Description             string         `json:"description,omitempty" gorm:"type:text"`
	CommercialUse           bool           `json:"commercial_use"`
	CommercialAttribution   bool           `json:"commercial_attribution"`
	CommercializerCheck     bool           `json:"commercializer_check"`
	CommercializerCheckData string         `json:"commercializer_check_data,omitempty" gorm:"size:256"`
	CommercialRevShare      float64        `json:"commercial_rev_share" gorm:"type:decimal(5,2);default:0"`
	DerivativesAllowed      bool           `json:"derivatives_allowed"`
	DerivativesAttribution  bool           `json:"derivatives_attribution"`
	DerivativesApproval     bool           `json:"derivatives_approval"`
	DerivativesReciprocal   bool           `json:"derivatives_reciprocal"`
	TerritoryExpansion      bool           `json:"territory_expansion"`
	DistributionChannels    pq.StringArray `json:"distribution_channels,omitempty" gorm:"type:text[]"`
	ContentRestrictions     bool           `json:"content_restrictions"`
}

func (PILTemplate) TableName() string {
	return "pil_terms"
}

// DefaultPILTemplates is the static template table. Selecting a template id
// yields exactly these policy fields; "custom" starts from all-false and is
// overridden per request.
var DefaultPILTemplates = []PILTemplate{
	{
		PILTermsID:             TemplateNonCommercial,
		Name:                   "Non-Commercial Social Remixing",
		Description:            "Allows remixing for non-commercial purposes only",
		CommercialUse:          false,
		CommercialRevShare:     0,
		DerivativesAllowed:     true,
		DerivativesAttribution: true,
		DerivativesReciprocal:  true,
		DistributionChannels:   pq.StringArray{"online", "social"},
	},
	{
		PILTermsID:             TemplateCommercial,
		Name:                   "Commercial Use",
		Description:            "Allows commercial use with revenue sharing",
		CommercialUse:          true,
		CommercialAttribution:  true,
		CommercialRevShare:     10,
		DerivativesAllowed:     true,
		DerivativesAttribution: true,
		TerritoryExpansion:     true,
		DistributionChannels:   pq.StringArray{"all"},
	},
	{
		PILTermsID:             TemplateCommercialRemix,
		Name:                   "Commercial Remix",
		Description:            "Allows commercial remixing with revenue sharing",
		CommercialUse:          true,
		CommercialAttribution:  true,
		CommercialRevShare:     15,
		DerivativesAllowed:     true,
		DerivativesAttribution: true,
		DerivativesReciprocal:  true,
		TerritoryExpansion:     true,
		DistributionChannels:   pq.StringArray{"all"},
	},
	{
		PILTermsID:           TemplatePublicDomain,
		Name:                 "Public Domain",
		Description:          "No restrictions on use or derivatives",
		CommercialUse:        true,
		CommercialRevShare:   0,
		DerivativesAllowed:   true,
		TerritoryExpansion:   true,
		DistributionChannels: pq.StringArray{"all"},
	},
	{
		PILTermsID:             TemplateAttributionOnly,
		Name:                   "Attribution Only",
		Description:            "Free use and derivatives with mandatory attribution",
		CommercialUse:          false,
		CommercialAttribution:  true,
		CommercialRevShare:     0,
		DerivativesAllowed:     true,
		DerivativesAttribution: true,
		DistributionChannels:   pq.StringArray{"online", "social"},
	},
	{
		PILTermsID:           TemplateCustom,
		Name:                 "Custom Terms",
		Description:          "Define your own custom licensing terms",
		DistributionChannels: pq.StringArray{},
	},
}

// FindDefaultTemplate returns the static template for id, or nil.
func FindDefaultTemplate(id TemplateID) *PILTemplate {
	for i := range DefaultPILTemplates {
		if DefaultPILTemplates[i].PILTermsID == id {
			tpl := DefaultPILTemplates[i]
			return &tpl
		}
	}
	return nil
}
