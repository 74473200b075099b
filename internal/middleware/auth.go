package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/config"
)

// IdentityClaims 外部身份服务签发的令牌声明
// 用户已在外部完成认证，这里只校验签名并取出身份字段
type IdentityClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// parseToken 校验令牌
func parseToken(tokenString string, cfg *config.AuthConfig) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// AuthMiddleware 认证中间件
// 如果提供了有效的令牌，则使用该用户；否则生成临时用户ID
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := parseToken(tokenString, cfg)
			if err == nil {
				c.Set("claims", claims)
				c.Set("user_id", claims.Subject)
				c.Next()
				return
			}
			// 令牌无效，继续尝试其他方式
		}

		// 从 Header 获取用户ID（兼容旧版）
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			// 生成临时用户ID
			userID = uuid.New().String()
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// RequireAuth 要求有效认证的中间件
// 必须提供有效的令牌，否则返回 401
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Missing Authorization header",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid Authorization header format",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := parseToken(tokenString, cfg)
		if err != nil {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

// GetClaims 从上下文获取当前用户声明
func GetClaims(c *gin.Context) (*IdentityClaims, bool) {
	value, exists := c.Get("claims")
	if !exists {
		return nil, false
	}
	claims, ok := value.(*IdentityClaims)
	return claims, ok
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
