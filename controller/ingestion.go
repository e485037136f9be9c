package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"document-rag-backend/model"
	"document-rag-backend/request"
	"document-rag-backend/response"
	"document-rag-backend/service/ingestion"
	"document-rag-backend/service/ingestion/chunker"
	"document-rag-backend/service/ingestion/loader"
	"document-rag-backend/service/mq"

	"github.com/gin-gonic/gin"
)

var (
	chunkService *ingestion.ChunkService
	embedService *ingestion.EmbedService
)

// InitIngestion 注入摄取服务实例
func InitIngestion(chunk *ingestion.ChunkService, embed *ingestion.EmbedService) {
	chunkService = chunk
	embedService = embed
}

func ChunkDocument(c *gin.Context) {
	var req request.ChunkDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	result, err := chunkService.Chunk(c.Request.Context(), ingestion.ChunkRequest{
		FilePath:     req.FilePath,
		DocumentID:   req.DocumentID,
		Strategy:     req.Strategy,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		MaxChunks:    req.MaxChunks,
		ChunkTable:   req.ChunkTable,
	})
	if err != nil {
		slog.Error(ErrChunkDocument.Error(), "file_path", req.FilePath, "err", err)
		c.AbortWithStatusJSON(chunkErrorStatus(err), response.Response{
			Msg: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: result,
	})
}

func GetChunkingTask(c *gin.Context) {
	task, err := chunkService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error(ErrGetChunkingTask.Error(), "task_id", c.Param("id"), "err", err)
		c.AbortWithStatusJSON(taskErrorStatus(err), response.Response{
			Msg: ErrGetChunkingTask.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.ChunkingTaskResponse{
			TaskID:       task.ID,
			DocumentID:   task.DocumentID,
			FilePath:     task.FilePath,
			Status:       string(task.Status),
			TotalChunks:  task.TotalChunks,
			Strategy:     task.ChunkingConfig.Strategy,
			CreatedAt:    task.CreatedAt,
			CompletedAt:  task.CompletedAt,
			ErrorMessage: task.ErrorMessage,
		},
	})
}

func ProcessEmbeddings(c *gin.Context) {
	var req request.ProcessEmbeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	result, err := embedService.ProcessEmbeddings(c.Request.Context(), ingestion.EmbedRequest{
		ChunkingTaskID: req.ChunkingTaskID,
		DocumentID:     req.DocumentID,
		Config: model.EmbeddingConfig{
			Model:          req.Model,
			Dimension:      req.Dimension,
			CollectionName: req.CollectionName,
		},
		Resume: req.Resume,
	})
	if err != nil {
		slog.Error(ErrProcessEmbeddings.Error(), "chunking_task_id", req.ChunkingTaskID, "err", err)
		c.AbortWithStatusJSON(embedErrorStatus(err), response.Response{
			Msg: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: result,
	})
}

func GetEmbeddingTask(c *gin.Context) {
	task, err := embedService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error(ErrGetEmbeddingTask.Error(), "task_id", c.Param("id"), "err", err)
		c.AbortWithStatusJSON(taskErrorStatus(err), response.Response{
			Msg: ErrGetEmbeddingTask.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.EmbeddingTaskResponse{
			TaskID:          task.ID,
			ChunkingTaskID:  task.ChunkingTaskID,
			DocumentID:      task.DocumentID,
			Status:          string(task.Status),
			TotalChunks:     task.TotalChunks,
			ProcessedChunks: task.ProcessedChunks,
			Progress:        task.Progress(),
			CollectionName:  task.EmbeddingConfig.CollectionName,
			CreatedAt:       task.CreatedAt,
			CompletedAt:     task.CompletedAt,
			ErrorMessage:    task.ErrorMessage,
		},
	})
}

// SubmitIngestion 提交异步摄取任务：文件已上传至OSS，经MQ触发分块与嵌入
func SubmitIngestion(c *gin.Context) {
	var req request.SubmitIngestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	err := mq.SendMessage(c.Request.Context(), &mq.Message{
		Topic: mq.TopicIngestion,
		Tag:   mq.TagIngest,
		Payload: ingestion.IngestMessage{
			ObjectName:     req.ObjectName,
			DocumentID:     req.DocumentID,
			Strategy:       req.Strategy,
			CollectionName: req.CollectionName,
		},
	})
	if err != nil {
		slog.Error(ErrSubmitIngestion.Error(), "object_name", req.ObjectName, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSubmitIngestion.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func chunkErrorStatus(err error) int {
	switch {
	case errors.Is(err, chunker.ErrStrategyNotFound),
		errors.Is(err, loader.ErrDocumentNotFound),
		errors.Is(err, loader.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func embedErrorStatus(err error) int {
	switch {
	case errors.Is(err, ingestion.ErrNoChunksFound):
		return http.StatusBadRequest
	case errors.Is(err, ingestion.ErrEmbeddingTaskExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func taskErrorStatus(err error) int {
	if errors.Is(err, ingestion.ErrTaskNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
