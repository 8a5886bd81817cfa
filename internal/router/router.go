// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storymint/storymint-backend/internal/blockchain"
	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/handlers"
	"github.com/storymint/storymint-backend/internal/ipfs"
	"github.com/storymint/storymint-backend/internal/metrics"
	"github.com/storymint/storymint-backend/internal/middleware"
	"github.com/storymint/storymint-backend/internal/services"
	"github.com/storymint/storymint-backend/internal/utils"
)

// Dependencies are the externally constructed clients injected into the
// service graph, so tests can substitute doubles.
type Dependencies struct {
	DB        *gorm.DB
	Publisher ipfs.Publisher
	Chain     blockchain.StoryClient
}

func Initialize(deps Dependencies, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	metadataService := services.NewMetadataService()
	licenseService := services.NewLicenseService(deps.DB)
	assetService := services.NewAssetService(deps.DB, licenseService)
	groupService := services.NewGroupService(deps.DB)
	authService := services.NewAuthService(cfg)
	mintService := services.NewMintService(cfg, metadataService, deps.Publisher,
		deps.Chain, licenseService, assetService, groupService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	uploadHandler := handlers.NewUploadHandler(storageService)
	mintHandler := handlers.NewMintHandler(mintService)
	assetHandler := handlers.NewAssetHandler(assetService)
	groupHandler := handlers.NewGroupHandler(groupService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check with dependency diagnostics
	r.GET("/health", healthHandler(deps, storageService))

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/nonce", authHandler.RequestNonce)
			auth.POST("/verify", authHandler.VerifySignature)
		}

		// Asset routes
		assets := v1.Group("/assets")
		assets.Use(middleware.AuthRequired())
		{
			assets.POST("/upload", middleware.UploadRateLimit(), uploadHandler.UploadFile)
			assets.POST("/mint", middleware.MintRateLimit(), mintHandler.Mint)
			assets.POST("/gallery", assetHandler.Gallery)
			assets.GET("", assetHandler.ListAssets)
			assets.GET("/:id", assetHandler.GetAsset)
			assets.PUT("/:id", assetHandler.UpdateAsset)
			assets.DELETE("/:id", assetHandler.DeleteAsset)
		}

		// Group routes
		groups := v1.Group("/groups")
		groups.Use(middleware.AuthRequired())
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("", groupHandler.ListGroups)
			groups.GET("/:id", groupHandler.GetGroup)
		}

		// License template catalog (public)
		licenses := v1.Group("/licenses")
		{
			licenses.GET("/templates", licenseHandler.ListTemplates)
			licenses.GET("/templates/:id", licenseHandler.GetTemplate)
		}
	}

	return r, nil
}

// healthHandler probes the database, chain RPC, and storage bucket with
// short deadlines so a degraded dependency shows up without failing the
// whole endpoint.
func healthHandler(deps Dependencies, storage *services.StorageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true

		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unreachable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}

		if deps.Chain != nil {
			if chainID, err := deps.Chain.ChainID(ctx); err != nil {
				checks["chain_rpc"] = "unreachable"
				healthy = false
			} else {
				checks["chain_rpc"] = "ok"
				checks["chain_id"] = chainID.Int64()
			}
		}

		if err := storage.CheckBucket(ctx); err != nil {
			checks["storage"] = "unreachable"
			healthy = false
		} else {
			checks["storage"] = "ok"
		}

		status := http.StatusOK
		state := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": checks,
		})
	}
}
