package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/insight-ai/insight/internal/middleware"
	"github.com/insight-ai/insight/internal/service"
	mediasvc "github.com/insight-ai/insight/internal/service/media"
)

// MediaHandler 媒体文件处理器
// 媒体宿主保存原始文件并返回可访问的 URL
type MediaHandler struct {
	svc *service.Services
}

// NewMediaHandler 创建媒体文件处理器
func NewMediaHandler(svc *service.Services) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// UploadMedia 上传文件到媒体宿主
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		Unauthorized(c, "user identity is required")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "multipart form is required: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		BadRequest(c, "files must not be empty")
		return
	}

	ctx := c.Request.Context()
	results := make([]gin.H, 0, len(files))

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			Error(c, err)
			return
		}

		stored, err := h.svc.Media.SaveFile(ctx, &mediasvc.SaveFileRequest{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      src,
			UserID:      userID,
		})
		src.Close()
		if err != nil {
			Error(c, err)
			return
		}

		results = append(results, gin.H{
			"id":            stored.ID,
			"url":           stored.URL,
			"original_name": stored.OriginalName,
			"size":          stored.Size,
		})
	}

	Created(c, results)
}

// DeleteMedia 从媒体宿主删除文件
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Media.DeleteFile(c.Request.Context(), id); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}
