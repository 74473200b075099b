package handler

import (
	"github.com/insight-ai/insight/internal/repository"
	"github.com/insight-ai/insight/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth    *AuthHandler
	Chat    *ChatHandler
	Session *SessionHandler
	Query   *QueryHandler
	Upload  *UploadHandler
	Media   *MediaHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services, repo *repository.Repositories) *Handlers {
	return &Handlers{
		Auth:    NewAuthHandler(repo),
		Chat:    NewChatHandler(svc, repo),
		Session: NewSessionHandler(svc),
		Query:   NewQueryHandler(svc),
		Upload:  NewUploadHandler(svc),
		Media:   NewMediaHandler(svc),
	}
}
