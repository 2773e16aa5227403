// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coretagging "herdbook/internal/core/tagging"
	"herdbook/internal/domain/scanpayload"
	"herdbook/internal/domain/tagging"
	"herdbook/internal/infrastructure/http/v1/dto"
	"herdbook/internal/infrastructure/http/v1/handlers"
	"herdbook/internal/infrastructure/http/v1/middleware"
	"herdbook/pkg/logger"
)

// Roles allowed to change a farm's tagging settings. Admin tokens always pass.
var settingsWriterRoles = []string{"admin", "manager"}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Generator produces, previews and validates tags
	Generator *tagging.Generator

	// Settings reads farm tagging settings
	Settings coretagging.SettingsProvider

	// SettingsWriter stores farm tagging settings; nil disables PUT settings
	SettingsWriter coretagging.SettingsWriter

	// Codec encodes and decodes scan payloads
	Codec *scanpayload.Codec

	// Readiness is checked by /health/ready
	Readiness handlers.ReadinessChecker

	// Metrics is served on /metrics when set
	Metrics http.Handler

	// Version is reported by /health/live
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	dto.RegisterValidators()

	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Readiness, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	{
		registerTagRoutes(v1, cfg)
		registerPayloadRoutes(v1, cfg)
	}

	return router
}

// registerTagRoutes registers farm-scoped and stateless tag endpoints.
func registerTagRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewTagHandler(cfg.Generator, cfg.Settings, cfg.SettingsWriter)

	farm := rg.Group("/farms/:farmId")
	farm.Use(middleware.FarmAccess())
	{
		farm.POST("/tags", h.Generate)
		farm.POST("/tags/preview", h.PreviewForFarm)
		farm.GET("/settings", h.GetSettings)
		farm.PUT("/settings", middleware.RequireRole(settingsWriterRoles...), h.PutSettings)
	}

	tags := rg.Group("/tags")
	{
		tags.POST("/preview", h.Preview)
		tags.POST("/validate", h.Validate)
	}
}

// registerPayloadRoutes registers scan payload endpoints.
func registerPayloadRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Codec == nil {
		return
	}
	h := handlers.NewPayloadHandler(cfg.Codec)

	payloads := rg.Group("/payloads")
	{
		payloads.POST("/encode", h.Encode)
		payloads.POST("/decode", h.Decode)
	}
}
