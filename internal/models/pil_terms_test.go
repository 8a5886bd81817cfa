// internal/models/pil_terms_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTemplateTableIsComplete(t *testing.T) {
	ids := []TemplateID{
		TemplateNonCommercial,
		TemplateCommercial,
		TemplateCommercialRemix,
		TemplatePublicDomain,
		TemplateAttributionOnly,
		TemplateCustom,
	}

	assert.Len(t, DefaultPILTemplates, len(ids))
	for _, id := range ids {
		template := FindDefaultTemplate(id)
		assert.NotNil(t, template, "template %s missing from static table", id)
		assert.Equal(t, id, template.PILTermsID)
		assert.NotEmpty(t, template.Name)
	}
}

func TestCommercialRemixPolicyFields(t *testing.T) {
	template := FindDefaultTemplate(TemplateCommercialRemix)
	assert.NotNil(t, template)

	assert.True(t, template.CommercialUse)
	assert.Equal(t, float64(15), template.CommercialRevShare)
	assert.True(t, template.DerivativesAllowed)
	assert.True(t, template.DerivativesAttribution)
	assert.True(t, template.DerivativesReciprocal)
}

func TestNonCommercialPolicyFields(t *testing.T) {
	template := FindDefaultTemplate(TemplateNonCommercial)
	assert.NotNil(t, template)

	assert.False(t, template.CommercialUse)
	assert.Equal(t, float64(0), template.CommercialRevShare)
	assert.True(t, template.DerivativesAllowed)
	assert.True(t, template.DerivativesReciprocal)
}

func TestPublicDomainAllowsEverything(t *testing.T) {
	template := FindDefaultTemplate(TemplatePublicDomain)
	assert.NotNil(t, template)

	assert.True(t, template.CommercialUse)
	assert.Equal(t, float64(0), template.CommercialRevShare)
	assert.True(t, template.DerivativesAllowed)
	assert.False(t, template.DerivativesAttribution)
}

func TestFindDefaultTemplateReturnsCopy(t *testing.T) {
	first := FindDefaultTemplate(TemplateCustom)
	first.CommercialUse = true

	second := FindDefaultTemplate(TemplateCustom)
	assert.False(t, second.CommercialUse, "mutating a resolved template must not change the static table")
}

func TestFindDefaultTemplateUnknownID(t *testing.T) {
	assert.Nil(t, FindDefaultTemplate("royalty-free-forever"))
}
