// internal/handlers/mint.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/storymint/storymint-backend/internal/services"
	"github.com/storymint/storymint-backend/internal/utils"
)

type MintHandler struct {
	mintService *services.MintService
}

func NewMintHandler(mintService *services.MintService) *MintHandler {
	return &MintHandler{mintService: mintService}
}

// POST /v1/assets/mint
func (h *MintHandler) Mint(c *gin.Context) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", utils.GetValidationErrors(err))
		return
	}
	if err := utils.ValidateStruct(req.Asset); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	response, err := h.mintService.Mint(c.Request.Context(), wallet, req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, response)
}
