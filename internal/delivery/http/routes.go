package http

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nutriscan/backend/config"
)

// barcodeFieldRegex mirrors the service-level barcode rule so malformed
// input is rejected at the binding layer.
var barcodeFieldRegex = regexp.MustCompile(`^\d{4,14}$`)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.SugaredLogger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registerBarcodeValidation()

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.POST("/lookup", handler.LookupProduct)
			products.GET("/search", handler.SearchProducts)
		}

		profiles := v1.Group("/profiles")
		{
			profiles.PUT("/:userId", handler.SaveProfile)
			profiles.GET("/:userId", handler.GetProfile)
		}

		v1.GET("/scores/:barcode", handler.GetScore)
	}

	return router
}

// registerBarcodeValidation adds the custom "barcode" rule to gin's
// validator engine. Registration is idempotent.
func registerBarcodeValidation() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
			return barcodeFieldRegex.MatchString(fl.Field().String())
		})
	}
}
