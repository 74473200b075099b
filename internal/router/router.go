package router

import (
	"github.com/gin-gonic/gin"

	"github.com/insight-ai/insight/internal/config"
	"github.com/insight-ai/insight/internal/handler"
	"github.com/insight-ai/insight/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.AuthMiddleware(&cfg.Auth))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 本地媒体文件直接暴露
	if cfg.Media.Type == "local" {
		r.Static(cfg.Media.Local.URLPrefix, cfg.Media.Local.BasePath)
	}

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Auth 认证
		auth := v1.Group("/auth")
		{
			auth.POST("/signin", h.Auth.SignIn)
		}

		// Chat 对话
		chats := v1.Group("/chats")
		{
			chats.GET("", h.Chat.ListChats)
			chats.GET("/:id", h.Chat.GetChat)
			chats.POST("", h.Chat.CommitSession)
			chats.POST("/:id/messages", h.Chat.RecordTurn)
		}

		// Session 会话暂存
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/turn", h.Session.RecordTurn)
			sessions.POST("/files", h.Session.AttachFiles)
			sessions.GET("/:id", h.Session.GetSession)
			sessions.DELETE("/:id", h.Session.DiscardSession)
		}

		// Query 问答
		chat := v1.Group("/chat")
		{
			chat.POST("/query", h.Query.Query)
		}

		// Upload 上传分析
		uploads := v1.Group("/uploads")
		{
			uploads.POST("/documents", h.Upload.UploadDocuments)
			uploads.POST("/images", h.Upload.UploadImages)
			uploads.POST("/videos", h.Upload.UploadVideos)
		}

		// Media 媒体宿主
		media := v1.Group("/media")
		{
			media.POST("", h.Media.UploadMedia)
			media.DELETE("/:id", h.Media.DeleteMedia)
		}
	}

	return r
}
