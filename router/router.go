package router

import (
	"document-rag-backend/controller"
	"document-rag-backend/middleware"

	"github.com/gin-gonic/gin"
)

func Register() *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		ingestion := api.Group("/ingestion")
		{
			ingestion.POST("/chunk", controller.ChunkDocument)
			ingestion.GET("/task/:id", controller.GetChunkingTask)
			ingestion.POST("/embeddings", controller.ProcessEmbeddings)
			ingestion.GET("/embedding-task/:id", controller.GetEmbeddingTask)
			ingestion.POST("/jobs", controller.SubmitIngestion)
		}

		api.POST("/query", controller.Query)
		api.POST("/query/stream", controller.QueryStream)
		api.POST("/search", controller.SearchVectors)
	}

	return r
}
