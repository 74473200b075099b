package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/insight-ai/insight/internal/middleware"
	"github.com/insight-ai/insight/internal/model"
	"github.com/insight-ai/insight/internal/repository"
	"github.com/insight-ai/insight/internal/service"
	"github.com/insight-ai/insight/internal/service/session"
)

// chatReader 对话读取接口，测试时可用内存实现替换
type chatReader interface {
	GetChatByID(id string) (*model.Chat, error)
	ListChatsByUser(userID string) ([]*repository.ChatSummary, error)
}

// ChatHandler 对话处理器
type ChatHandler struct {
	svc   *service.Services
	chats chatReader
}

// NewChatHandler 创建对话处理器
func NewChatHandler(svc *service.Services, repo *repository.Repositories) *ChatHandler {
	return &ChatHandler{svc: svc, chats: repo.Chat}
}

// ListChats 列出当前用户的对话
// 按创建时间倒序，附带首条消息和消息数量
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		Unauthorized(c, "user identity is required")
		return
	}

	chats, err := h.chats.ListChatsByUser(userID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, chats)
}

// GetChat 获取对话详情
// 返回对话、按时间升序的消息和全部文件记录；
// 其他用户的对话一律按不存在处理
func (h *ChatHandler) GetChat(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		Unauthorized(c, "user identity is required")
		return
	}

	id := c.Param("id")

	chat, err := h.chats.GetChatByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "chat not found")
			return
		}
		Error(c, err)
		return
	}
	if chat.UserID != userID {
		NotFound(c, "chat not found")
		return
	}

	Success(c, chat)
}

// CommitSessionRequest 保存对话请求
type CommitSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Title     string `json:"title" binding:"required"`
}

// CommitSession 保存对话
// 将会话暂存的消息和文件一次性落库；重复保存返回已有对话ID
func (h *ChatHandler) CommitSession(c *gin.Context) {
	var req CommitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()

	sess, err := h.svc.Sessions.Load(ctx, req.SessionID)
	if err != nil {
		Error(c, err)
		return
	}
	if sess == nil {
		NotFound(c, "session not found")
		return
	}

	chatID, err := h.svc.Reconciler.Commit(ctx, sess, req.Title)
	if err != nil {
		Error(c, err)
		return
	}

	if err := h.svc.Sessions.Save(ctx, sess); err != nil {
		Error(c, err)
		return
	}

	Created(c, gin.H{"chat_id": chatID})
}

// RecordTurnRequest 记录轮次请求
type RecordTurnRequest struct {
	UserMessage   string `json:"user_message" binding:"required"`
	SystemMessage string `json:"system_message" binding:"required"`
}

// RecordTurn 在已保存的对话上记录一个轮次
// 只有对话的归属用户可以追加
func (h *ChatHandler) RecordTurn(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		Unauthorized(c, "user identity is required")
		return
	}

	chatID := c.Param("id")

	var req RecordTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()

	sess, err := h.svc.Reconciler.Resume(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, session.ErrChatNotOwned) {
			NotFound(c, "chat not found")
			return
		}
		Error(c, err)
		return
	}

	if err := h.svc.Reconciler.RecordTurn(ctx, sess, req.UserMessage, req.SystemMessage); err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{"chat_id": chatID})
}
