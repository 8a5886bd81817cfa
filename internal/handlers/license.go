// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/storymint/storymint-backend/internal/models"
	"github.com/storymint/storymint-backend/internal/services"
	"github.com/storymint/storymint-backend/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{licenseService: licenseService}
}

// GET /v1/licenses/templates
func (h *LicenseHandler) ListTemplates(c *gin.Context) {
	utils.SuccessResponse(c, h.licenseService.ListTemplates(c.Request.Context()))
}

// GET /v1/licenses/templates/:id
func (h *LicenseHandler) GetTemplate(c *gin.Context) {
	template, err := h.licenseService.ResolveTemplate(models.TemplateID(c.Param("id")), nil)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, template)
}
