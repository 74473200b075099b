package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/insight-ai/insight/internal/middleware"
	"github.com/insight-ai/insight/internal/model"
	"github.com/insight-ai/insight/internal/service"
	"github.com/insight-ai/insight/internal/service/session"
)

// SessionHandler 会话处理器
// 会话是对话落库前的暂存状态，快照保存在 Redis
type SessionHandler struct {
	svc *service.Services
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(svc *service.Services) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// loadOrCreate 加载会话，不存在时创建新的未绑定会话
func (h *SessionHandler) loadOrCreate(ctx context.Context, sessionID, userID, kind string) (*session.Session, error) {
	if sessionID != "" {
		sess, err := h.svc.Sessions.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
	}

	if kind == "" {
		kind = model.ChatTypeAI
	}
	return session.NewSession(userID, kind), nil
}

// TurnRequest 记录轮次请求
type TurnRequest struct {
	SessionID     string `json:"session_id"`
	Kind          string `json:"kind"`
	UserMessage   string `json:"user_message" binding:"required"`
	SystemMessage string `json:"system_message" binding:"required"`
}

// RecordTurn 记录一个轮次
// 未绑定的会话进入暂存队列，已绑定的会话直接写库
func (h *SessionHandler) RecordTurn(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		Unauthorized(c, "user identity is required")
		return
	}

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()

	sess, err := h.loadOrCreate(ctx, req.SessionID, userID, req.Kind)
	if err != nil {
		Error(c, err)
		return
	}

	if err := h.svc.Reconciler.RecordTurn(ctx, sess, req.UserMessage, req.SystemMessage); err != nil {
		Error(c, err)
		return
	}

	if err := h.svc.Sessions.Save(ctx, sess); err != nil {
		Error(c, err)
		return
	}

	Success(c, sess)
}

// AttachFilesRequest 关联文件请求
type AttachFilesRequest struct {
	SessionID   string `json:"session_id"`
	Kind        string `json:"kind"`
	NamespaceID string `json:"namespace_id"`
	Files       []struct {
		OriginalName string `json:"original_name" binding:"required"`
		URL          string `json:"url"`
	} `json:"files" binding:"required"`
}

// AttachFiles 将上传成功的文件记录关联到会话
// 同名文件先到先得
func (h *SessionHandler) AttachFiles(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		Unauthorized(c, "user identity is required")
		return
	}

	var req AttachFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if len(req.Files) == 0 {
		BadRequest(c, "files must not be empty")
		return
	}

	ctx := c.Request.Context()

	sess, err := h.loadOrCreate(ctx, req.SessionID, userID, req.Kind)
	if err != nil {
		Error(c, err)
		return
	}

	// 命名空间在首次成功索引时确定，之后不再变化
	if sess.NamespaceID == "" && req.NamespaceID != "" {
		sess.NamespaceID = req.NamespaceID
	}

	files := make([]session.PendingDocument, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, session.PendingDocument{
			OriginalName: f.OriginalName,
			URL:          f.URL,
		})
	}

	if err := h.svc.Reconciler.AttachFiles(ctx, sess, files); err != nil {
		Error(c, err)
		return
	}

	if err := h.svc.Sessions.Save(ctx, sess); err != nil {
		Error(c, err)
		return
	}

	Success(c, sess)
}

// GetSession 获取会话快照
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := c.Param("id")

	sess, err := h.svc.Sessions.Load(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	if sess == nil {
		NotFound(c, "session not found")
		return
	}

	Success(c, sess)
}

// DiscardSession 丢弃会话
// 未保存的暂存内容随快照一起删除
func (h *SessionHandler) DiscardSession(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Sessions.Delete(c.Request.Context(), id); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}
