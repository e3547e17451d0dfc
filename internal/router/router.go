package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tributa/internal/handler"
	"tributa/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *zap.Logger,
	allowedOrigins []string,
	taxH *handler.TaxHandler,
	reformH *handler.ReformHandler,
	documentH *handler.DocumentHandler,
	spedH *handler.SpedHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Current-regime calculators
	v1.POST("/taxes/calculate", taxH.Calculate)

	// IBS/CBS transition
	reform := v1.Group("/reform")
	reform.POST("/calculate", reformH.Calculate)
	reform.POST("/compare", reformH.Compare)

	// Fiscal XML documents
	documents := v1.Group("/documents")
	documents.POST("", documentH.Issue)
	documents.POST("/validate", documentH.Validate)

	// Bookkeeping files
	sped := v1.Group("/sped")
	sped.GET("/layouts", spedH.Layouts)
	sped.POST("/:variant", spedH.Generate)

	return r
}
