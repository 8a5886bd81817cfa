// internal/services/group_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/models"
	"github.com/storymint/storymint-backend/internal/utils"
)

// GroupService manages IP groups: named collections a creator can attach
// new mints to.
type GroupService struct {
	db *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

type CreateGroupInput struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description"`
}

// CreateGroup registers a new group for the creator. The group id is
// synthesized locally; on-chain group registration is recorded separately
// via CreationTxHash when available.
func (s *GroupService) CreateGroup(ctx context.Context, creatorAddress string, input CreateGroupInput) (*models.IPGroup, error) {
	token, err := utils.GenerateRandomString(10)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to generate group id", err)
	}

	group := &models.IPGroup{
		GroupID:        fmt.Sprintf("grp_%d_%s", time.Now().UnixMilli(), token),
		Name:           input.Name,
		Description:    input.Description,
		CreatorAddress: creatorAddress,
		Network:        "story",
	}

	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, classifyDatabaseError(err)
	}
	return group, nil
}

// ListGroups returns the creator's groups, empty on a missing table.
func (s *GroupService) ListGroups(ctx context.Context, creatorAddress string) []models.IPGroup {
	var groups []models.IPGroup
	err := s.db.WithContext(ctx).
		Where("creator_address = ?", creatorAddress).
		Order("created_at desc").
		Find(&groups).Error
	if err != nil {
		logrus.WithError(err).Warn("Group query failed, serving empty list")
		return []models.IPGroup{}
	}
	return groups
}

// GetGroup loads one group by its external group id.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.IPGroup, error) {
	var group models.IPGroup
	err := s.db.WithContext(ctx).Where("group_id = ?", groupID).First(&group).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.KindNotFound, "group not found")
		}
		return nil, classifyDatabaseError(err)
	}
	return &group, nil
}

// RecordMembership bumps the member count after an asset joins the group.
// Best-effort: a failure is logged, never propagated, because the asset row
// already carries the group id.
func (s *GroupService) RecordMembership(ctx context.Context, groupID string) {
	if groupID == "" {
		return
	}
	err := s.db.WithContext(ctx).Model(&models.IPGroup{}).
		Where("group_id = ?", groupID).
		UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	if err != nil {
		logrus.WithError(err).WithField("group_id", groupID).Warn("Failed to bump group member count")
	}
}
