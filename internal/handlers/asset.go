// internal/handlers/asset.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/storymint/storymint-backend/internal/models"
	"github.com/storymint/storymint-backend/internal/services"
	"github.com/storymint/storymint-backend/internal/utils"
)

type AssetHandler struct {
	assetService *services.AssetService
}

func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

type galleryRequest struct {
	SessionAssets []models.AssetRecord `json:"session_assets"`
}

// POST /v1/assets/gallery
//
// POST rather than GET because the client ships its session-minted assets
// in the body so the merge can include rows the write-back hasn't landed.
func (h *AssetHandler) Gallery(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req galleryRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	result, err := h.assetService.LoadWalletAssets(c.Request.Context(), wallet, req.SessionAssets)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /v1/assets
func (h *AssetHandler) ListAssets(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.assetService.ListAssets(c.Request.Context(), wallet, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /v1/assets/:id
func (h *AssetHandler) GetAsset(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	record, err := h.assetService.GetAsset(c.Request.Context(), c.Param("id"), wallet)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, record)
}

// PUT /v1/assets/:id
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var update services.AssetUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	record, err := h.assetService.UpdateAsset(c.Request.Context(), c.Param("id"), wallet, update)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, record)
}

// DELETE /v1/assets/:id
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.assetService.DeleteAsset(c.Request.Context(), c.Param("id"), wallet); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}
