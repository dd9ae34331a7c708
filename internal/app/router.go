package app

import (
	"qdrt_backend/docs"
	"qdrt_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	a.registerQDRTRoutes(api.Group("/qdrt"), c)
}

func (a *App) registerQDRTRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/schema", c.qdrt.GetSchema)

	// Questions and manual answers
	rg.GET("/questions", c.qdrt.ListQuestions)
	rg.GET("/questions/:id", c.qdrt.GetQuestion)
	rg.GET("/answers", c.qdrt.GetAnswers)
	rg.PATCH("/answers/:id", c.qdrt.UpdateAnswer)
	rg.DELETE("/answers/:id", c.qdrt.ClearAnswer)

	// Reference corpus
	rg.GET("/corpus", c.qdrt.GetCorpus)
	rg.PUT("/corpus", c.qdrt.ReplaceCorpus)
	rg.DELETE("/corpus", c.qdrt.ClearCorpus)
	rg.POST("/corpus/upload", c.qdrt.UploadCorpus)

	// Automated answers
	rg.POST("/questions/:id/generate", c.qdrt.GenerateOne)
	rg.POST("/generate-all", c.qdrt.GenerateAll)

	// Export and import
	rg.GET("/export/:format", c.qdrt.Download)
	rg.POST("/export/:format/publish", c.qdrt.Publish)
	rg.POST("/import", c.qdrt.Import)
}
