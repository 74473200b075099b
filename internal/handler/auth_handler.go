package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/insight-ai/insight/internal/middleware"
	"github.com/insight-ai/insight/internal/model"
	"github.com/insight-ai/insight/internal/repository"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	repo *repository.Repositories
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(repo *repository.Repositories) *AuthHandler {
	return &AuthHandler{repo: repo}
}

// SignIn 登录
// 凭已验证的身份令牌把用户信息同步到数据库（存在则更新）
func (h *AuthHandler) SignIn(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		Unauthorized(c, "valid identity token is required")
		return
	}

	userID, _ := middleware.GetUserID(c)

	user := &model.User{
		ID:       userID,
		Email:    claims.Email,
		Name:     claims.Name,
		ImageURL: claims.Picture,
	}

	if err := h.repo.User.Upsert(user); err != nil {
		Error(c, err)
		return
	}

	Success(c, user)
}
