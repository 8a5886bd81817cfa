// internal/handlers/upload.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/storymint/storymint-backend/internal/metrics"
	"github.com/storymint/storymint-backend/internal/services"
	"github.com/storymint/storymint-backend/internal/utils"
)

type UploadHandler struct {
	storageService *services.StorageService
}

func NewUploadHandler(storageService *services.StorageService) *UploadHandler {
	return &UploadHandler{storageService: storageService}
}

// POST /v1/assets/upload
func (h *UploadHandler) UploadFile(c *gin.Context) {
	if _, ok := utils.GetWalletFromContext(c); !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", nil)
		return
	}
	defer file.Close()

	options := h.storageService.DefaultUploadOptions()
	if folder := c.PostForm("folder"); folder != "" {
		options.Folder = folder
	}

	result, err := h.storageService.UploadFile(c.Request.Context(), file, header, options)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	metrics.ObserveUploadSize(result.Size)

	utils.CreatedResponse(c, gin.H{
		"url":       result.URL,
		"key":       result.Key,
		"size":      result.Size,
		"mime_type": result.MimeType,
		"sha256":    result.SHA256,
		"filename":  header.Filename,
	})
}
