// internal/services/license_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/models"
)

func TestResolveTemplateMatchesStaticTable(t *testing.T) {
	svc := NewLicenseService(nil)

	cases := []struct {
		id            models.TemplateID
		commercialUse bool
		revShare      float64
	}{
		{models.TemplateNonCommercial, false, 0},
		{models.TemplateCommercial, true, 10},
		{models.TemplateCommercialRemix, true, 15},
		{models.TemplatePublicDomain, true, 0},
		{models.TemplateAttributionOnly, false, 0},
		{models.TemplateCustom, false, 0},
	}

	for _, tc := range cases {
		template, err := svc.ResolveTemplate(tc.id, nil)
		assert.NoError(t, err, "template %s", tc.id)
		assert.Equal(t, tc.commercialUse, template.CommercialUse, "template %s", tc.id)
		assert.Equal(t, tc.revShare, template.CommercialRevShare, "template %s", tc.id)
	}
}

func TestResolveTemplateUnknownID(t *testing.T) {
	svc := NewLicenseService(nil)

	_, err := svc.ResolveTemplate("does-not-exist", nil)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCustomTemplateAcceptsOverrides(t *testing.T) {
	svc := NewLicenseService(nil)

	commercial := true
	revShare := 42.5
	template, err := svc.ResolveTemplate(models.TemplateCustom, &CustomTermsOverride{
		CommercialUse:      &commercial,
		CommercialRevShare: &revShare,
	})
	assert.NoError(t, err)
	assert.True(t, template.CommercialUse)
	assert.Equal(t, 42.5, template.CommercialRevShare)

	// The static table must be untouched.
	assert.False(t, models.FindDefaultTemplate(models.TemplateCustom).CommercialUse)
}

func TestCustomTemplateRejectsOutOfRangeRevShare(t *testing.T) {
	svc := NewLicenseService(nil)

	for _, revShare := range []float64{-5, 100.5, 250} {
		_, err := svc.ResolveTemplate(models.TemplateCustom, &CustomTermsOverride{
			CommercialRevShare: &revShare,
		})
		assert.Error(t, err, "rev share %v", revShare)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), "rev share %v", revShare)
	}

	// The boundaries themselves are legal percentages.
	for _, revShare := range []float64{0, 100} {
		template, err := svc.ResolveTemplate(models.TemplateCustom, &CustomTermsOverride{
			CommercialRevShare: &revShare,
		})
		assert.NoError(t, err, "rev share %v", revShare)
		assert.Equal(t, revShare, template.CommercialRevShare)
	}
}

func TestNonCustomTemplateRejectsOverrides(t *testing.T) {
	svc := NewLicenseService(nil)

	commercial := false
	_, err := svc.ResolveTemplate(models.TemplateCommercial, &CustomTermsOverride{
		CommercialUse: &commercial,
	})
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestRequiresOnChainRegistration(t *testing.T) {
	svc := NewLicenseService(nil)

	nonCommercial, _ := svc.ResolveTemplate(models.TemplateNonCommercial, nil)
	commercial, _ := svc.ResolveTemplate(models.TemplateCommercial, nil)

	assert.False(t, svc.RequiresOnChainRegistration(nonCommercial))
	assert.True(t, svc.RequiresOnChainRegistration(commercial))
}
