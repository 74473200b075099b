package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/insight-ai/insight/internal/service"
	"github.com/insight-ai/insight/internal/service/responder"
)

// QueryHandler 问答处理器
type QueryHandler struct {
	svc *service.Services
}

// NewQueryHandler 创建问答处理器
func NewQueryHandler(svc *service.Services) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// QueryRequest 问答请求
type QueryRequest struct {
	Query       string `json:"query" binding:"required"`
	NamespaceID string `json:"namespace_id"`
	History     []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"history"`
}

// Query 检索增强问答
// 回答只依据已索引的内容，内部错误降级为固定文案
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	history := make([]responder.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, responder.Turn{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	reply, _ := h.svc.Responder.Answer(c.Request.Context(), req.Query, req.NamespaceID, history)

	Success(c, reply)
}
