// internal/services/asset_service.go
package services

import (
	"context"
	"strings"
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/models"
	"github.com/storymint/storymint-backend/internal/utils"
)

// AssetStore is the persistence surface the mint orchestrator depends on.
type AssetStore interface {
	Save(ctx context.Context, record *models.AssetRecord) (*models.AssetRecord, error)
}

// AssetService owns the denormalized asset rows: the best-effort write path
// after a mint and the gallery read path.
type AssetService struct {
	db             *gorm.DB
	licenseService *LicenseService
}

func NewAssetService(db *gorm.DB, licenseService *LicenseService) *AssetService {
	return &AssetService{db: db, licenseService: licenseService}
}

// Save inserts the record, degrading gracefully when the schema is behind:
// a missing table returns the input unpersisted, a missing column retries
// once with the offending column stripped. The mint already happened; the
// row is a recoverable cache of it.
func (s *AssetService) Save(ctx context.Context, record *models.AssetRecord) (*models.AssetRecord, error) {
	err := s.db.WithContext(ctx).Create(record).Error
	if err == nil {
		return record, nil
	}

	classified := classifyDatabaseError(err)
	switch apperrors.KindOf(classified) {
	case apperrors.KindTableMissing:
		logrus.WithError(err).Warn("Asset table missing, returning record unpersisted")
		return record, nil
	case apperrors.KindColumnMissing:
		if strings.Contains(err.Error(), "file_hash") {
			logrus.WithError(err).Warn("file_hash column missing, retrying insert without it")
			stripped := *record
			stripped.FileHash = ""
			if retryErr := s.db.WithContext(ctx).
				Omit("file_hash").Create(&stripped).Error; retryErr == nil {
				return &stripped, nil
			}
		}
		logrus.WithError(err).Warn("Asset column missing, returning record unpersisted")
		return record, nil
	default:
		return nil, classified
	}
}

// classifyDatabaseError tags schema-drift failures so callers can degrade
// without parsing driver messages themselves.
func classifyDatabaseError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "SQLSTATE 42P01"):
		return apperrors.Wrap(apperrors.KindTableMissing, "target table does not exist", err)
	case strings.Contains(msg, "SQLSTATE 42703"):
		return apperrors.Wrap(apperrors.KindColumnMissing, "target column does not exist", err)
	// A missing-column message names the relation too, so the column check
	// must win over the table check.
	case strings.Contains(msg, "does not exist") && strings.Contains(msg, "column"):
		return apperrors.Wrap(apperrors.KindColumnMissing, "target column does not exist", err)
	case strings.Contains(msg, "does not exist") && strings.Contains(msg, "relation"):
		return apperrors.Wrap(apperrors.KindTableMissing, "target table does not exist", err)
	default:
		return apperrors.Wrap(apperrors.KindInternal, "database write failed", err)
	}
}

// WalletAssets is the gallery payload for one wallet.
type WalletAssets struct {
	Assets       []models.AssetRecord  `json:"assets"`
	Groups       []models.IPGroup      `json:"groups"`
	LicenseTerms []models.PILTemplate  `json:"license_terms"`
}

// SessionAsset is an asset minted in the caller's current session that may
// not have reached the database yet.
type SessionAsset struct {
	Record models.AssetRecord `json:"record"`
}

// LoadWalletAssets runs the three independent gallery queries in parallel,
// each tolerating a missing table by yielding an empty list, then merges in
// session-minted assets not yet visible in the store.
func (s *AssetService) LoadWalletAssets(ctx context.Context, address string, sessionAssets []models.AssetRecord) (*WalletAssets, error) {
	result := &WalletAssets{
		Assets:       []models.AssetRecord{},
		Groups:       []models.IPGroup{},
		LicenseTerms: []models.PILTemplate{},
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		var assets []models.AssetRecord
		err := s.db.WithContext(ctx).
			Where("creator_address = ?", address).
			Order("created_at desc").
			Find(&assets).Error
		if err != nil {
			logrus.WithError(err).Warn("Asset query failed, serving empty list")
			return
		}
		result.Assets = assets
	}()

	go func() {
		defer wg.Done()
		var groups []models.IPGroup
		err := s.db.WithContext(ctx).
			Where("creator_address = ?", address).
			Order("created_at desc").
			Find(&groups).Error
		if err != nil {
			logrus.WithError(err).Warn("Group query failed, serving empty list")
			return
		}
		result.Groups = groups
	}()

	go func() {
		defer wg.Done()
		result.LicenseTerms = s.licenseService.ListTemplates(ctx)
	}()

	wg.Wait()

	result.Assets = mergeSessionAssets(result.Assets, sessionAssets)
	for i := range result.Assets {
		if result.Assets[i].IPType == "" {
			result.Assets[i].IPType = string(inferDisplayCategory(&result.Assets[i]))
		}
	}

	return result, nil
}

// mergeSessionAssets prepends session-minted assets missing from the
// persisted set, deduplicated by token id. The user must see their mint
// even when the write-back failed or is still in flight.
func mergeSessionAssets(persisted, session []models.AssetRecord) []models.AssetRecord {
	if len(session) == 0 {
		return persisted
	}

	seen := make(map[string]bool, len(persisted))
	for _, asset := range persisted {
		if asset.TokenID != "" {
			seen[asset.TokenID] = true
		}
	}

	merged := make([]models.AssetRecord, 0, len(persisted)+len(session))
	for _, asset := range session {
		if asset.TokenID != "" && seen[asset.TokenID] {
			continue
		}
		merged = append(merged, asset)
	}
	return append(merged, persisted...)
}

// inferDisplayCategory picks the display media type by priority: explicit
// stored type, cover image, media file, then the legacy single-URL field.
func inferDisplayCategory(record *models.AssetRecord) models.MediaCategory {
	if record.MediaFileType != "" {
		return InferCategoryFromMIME(record.MediaFileType)
	}
	if record.CoverImageURL != "" {
		return models.MediaCategoryImage
	}
	if record.MediaFileURL != "" {
		return InferCategoryFromURL(record.MediaFileURL)
	}
	if record.FileURL != "" {
		return InferCategoryFromURL(record.FileURL)
	}
	if record.ImageURL != "" {
		return InferCategoryFromURL(record.ImageURL)
	}
	return models.MediaCategoryDocument
}

// GetAsset loads one record by id, scoped to its creator.
func (s *AssetService) GetAsset(ctx context.Context, id, creatorAddress string) (*models.AssetRecord, error) {
	var record models.AssetRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND creator_address = ?", id, creatorAddress).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.KindNotFound, "asset not found")
		}
		return nil, classifyDatabaseError(err)
	}
	return &record, nil
}

// AssetUpdate is the caller-editable subset of an asset record.
type AssetUpdate struct {
	Description *string  `json:"description,omitempty"`
	ExternalURL *string  `json:"external_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateAsset applies an explicit edit. On-chain identifiers and hashes are
// immutable once minted.
func (s *AssetService) UpdateAsset(ctx context.Context, id, creatorAddress string, update AssetUpdate) (*models.AssetRecord, error) {
	record, err := s.GetAsset(ctx, id, creatorAddress)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.ExternalURL != nil {
		updates["external_url"] = *update.ExternalURL
	}
	if update.Tags != nil {
		updates["tags"] = pq.StringArray(update.Tags)
	}
	if len(updates) == 0 {
		return record, nil
	}

	if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, classifyDatabaseError(err)
	}
	return record, nil
}

// DeleteAsset removes the cached row. The on-chain asset is unaffected.
func (s *AssetService) DeleteAsset(ctx context.Context, id, creatorAddress string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND creator_address = ?", id, creatorAddress).
		Delete(&models.AssetRecord{})
	if result.Error != nil {
		return classifyDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindNotFound, "asset not found")
	}
	return nil
}

// ListAssets pages through a wallet's persisted assets.
func (s *AssetService) ListAssets(ctx context.Context, creatorAddress string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.AssetRecord{}).
		Where("creator_address = ?", creatorAddress)

	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("asset_name ILIKE ? OR description ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, classifyDatabaseError(err)
	}

	var assets []models.AssetRecord
	query = utils.ApplySort(query, params, []string{"created_at", "asset_name", "token_id"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&assets).Error; err != nil {
		return nil, classifyDatabaseError(err)
	}

	result := utils.CreatePaginationResult(assets, total, params)
	return &result, nil
}
