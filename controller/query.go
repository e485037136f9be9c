package controller

import (
	"log/slog"
	"net/http"

	"document-rag-backend/request"
	"document-rag-backend/response"
	"document-rag-backend/service/query"
	"document-rag-backend/utils"

	"github.com/gin-gonic/gin"
)

var queryService *query.Service

// InitQuery 注入检索服务实例
func InitQuery(svc *query.Service) {
	queryService = svc
}

func Query(c *gin.Context) {
	var req request.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	result, err := queryService.Query(c.Request.Context(), req.Query, query.Options{
		CollectionName: req.CollectionName,
		TopK:           req.TopK,
		DocumentID:     req.DocumentID,
	})
	if err != nil {
		slog.Error(ErrQuery.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrQuery.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: result,
	})
}

// QueryStream SSE流式问答：先推送检索来源，再增量推送答案片段
func QueryStream(c *gin.Context) {
	var req request.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	utils.SetSSEHeaders(c)

	sources, err := queryService.QueryStream(c.Request.Context(), req.Query, query.Options{
		CollectionName: req.CollectionName,
		TopK:           req.TopK,
		DocumentID:     req.DocumentID,
	}, func(chunk string) error {
		utils.SendSSEMessage(c, utils.EventAnswerFragment, chunk)
		return nil
	})
	if err != nil {
		slog.Error(ErrQuery.Error(), "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrQuery.Error())
		return
	}

	utils.SendSSEMessage(c, utils.EventSources, sources)
	utils.SendSSEMessage(c, utils.EventDone, "")
}

func SearchVectors(c *gin.Context) {
	var req request.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	sources, err := queryService.SearchVectors(c.Request.Context(), req.Query, query.Options{
		CollectionName: req.CollectionName,
		TopK:           req.Limit,
		DocumentID:     req.DocumentID,
	})
	if err != nil {
		slog.Error(ErrSearchVectors.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSearchVectors.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: sources,
	})
}
