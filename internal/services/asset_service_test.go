// internal/services/asset_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/models"
)

func TestClassifyDatabaseErrorSchemaDrift(t *testing.T) {
	cases := []struct {
		message string
		kind    apperrors.Kind
	}{
		{`relation "asset_metadata" does not exist`, apperrors.KindTableMissing},
		{`column "file_hash" of relation "asset_metadata" does not exist`, apperrors.KindColumnMissing},
		{`ERROR: relation "ip_groups" does not exist (SQLSTATE 42P01)`, apperrors.KindTableMissing},
		{`ERROR: column "tags" does not exist (SQLSTATE 42703)`, apperrors.KindColumnMissing},
		{`duplicate key value violates unique constraint`, apperrors.KindInternal},
	}
	for _, tc := range cases {
		err := classifyDatabaseError(errors.New(tc.message))
		assert.Equal(t, tc.kind, apperrors.KindOf(err), "message: %s", tc.message)
	}
}

func TestMergeSessionAssetsPrependsUnpersisted(t *testing.T) {
	session := []models.AssetRecord{{TokenID: "7", AssetName: "Fresh mint"}}

	merged := mergeSessionAssets(nil, session)
	assert.Len(t, merged, 1)
	assert.Equal(t, "Fresh mint", merged[0].AssetName)
}

func TestMergeSessionAssetsDedupesByTokenID(t *testing.T) {
	persisted := []models.AssetRecord{
		{TokenID: "7", AssetName: "Persisted copy"},
		{TokenID: "8", AssetName: "Older asset"},
	}
	session := []models.AssetRecord{
		{TokenID: "7", AssetName: "Session copy"},
		{TokenID: "9", AssetName: "Newest mint"},
	}

	merged := mergeSessionAssets(persisted, session)
	assert.Len(t, merged, 3)
	// Session-only assets come first, then the persisted set in store order.
	assert.Equal(t, "Newest mint", merged[0].AssetName)
	assert.Equal(t, "Persisted copy", merged[1].AssetName)
	assert.Equal(t, "Older asset", merged[2].AssetName)
}

func TestMergeSessionAssetsKeepsTokenlessSessionEntries(t *testing.T) {
	persisted := []models.AssetRecord{{TokenID: "7"}}
	session := []models.AssetRecord{{TokenID: "", AssetName: "Pending mint"}}

	merged := mergeSessionAssets(persisted, session)
	assert.Len(t, merged, 2)
	assert.Equal(t, "Pending mint", merged[0].AssetName)
}

func TestMergeSessionAssetsEmptySessionIsPassthrough(t *testing.T) {
	persisted := []models.AssetRecord{{TokenID: "7"}}
	assert.Equal(t, persisted, mergeSessionAssets(persisted, nil))
}

func TestInferDisplayCategoryPriority(t *testing.T) {
	// Explicit MIME wins over every URL field.
	record := &models.AssetRecord{
		MediaFileType: "audio/mpeg",
		CoverImageURL: "https://cdn.example.com/cover.png",
		FileURL:       "https://cdn.example.com/track.mp4",
	}
	assert.Equal(t, models.MediaCategoryAudio, inferDisplayCategory(record))

	// A cover image implies an image asset.
	record = &models.AssetRecord{CoverImageURL: "https://cdn.example.com/cover.png"}
	assert.Equal(t, models.MediaCategoryImage, inferDisplayCategory(record))

	// Media file URL is inspected before the legacy fields.
	record = &models.AssetRecord{
		MediaFileURL: "https://cdn.example.com/clip.mp4",
		ImageURL:     "https://cdn.example.com/thumb.jpg",
	}
	assert.Equal(t, models.MediaCategoryVideo, inferDisplayCategory(record))

	record = &models.AssetRecord{FileURL: "https://cdn.example.com/track.mp3"}
	assert.Equal(t, models.MediaCategoryAudio, inferDisplayCategory(record))

	record = &models.AssetRecord{ImageURL: "https://cdn.example.com/art.webp"}
	assert.Equal(t, models.MediaCategoryImage, inferDisplayCategory(record))

	// Nothing to go on defaults to document.
	assert.Equal(t, models.MediaCategoryDocument, inferDisplayCategory(&models.AssetRecord{}))
}
