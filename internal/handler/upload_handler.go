package handler

import (
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/service"
	"github.com/insight-ai/insight/internal/service/upload"
)

// UploadHandler 上传处理器
// 接收批量文件，暂存到临时目录后交给分析流水线
type UploadHandler struct {
	svc *service.Services
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(svc *service.Services) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// UploadDocuments 上传文档批次
func (h *UploadHandler) UploadDocuments(c *gin.Context) {
	h.process(c)
}

// UploadImages 上传图片批次
func (h *UploadHandler) UploadImages(c *gin.Context) {
	h.process(c)
}

// UploadVideos 上传视频批次
func (h *UploadHandler) UploadVideos(c *gin.Context) {
	h.process(c)
}

// process 校验、暂存并处理一批文件
// 临时文件在处理结束后删除
func (h *UploadHandler) process(c *gin.Context) {
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

	maxSize := h.svc.Config.Upload.MaxFileSize
	for _, fh := range files {
		if maxSize > 0 && fh.Size > maxSize {
			BadRequest(c, fmt.Sprintf("file %s exceeds size limit of %d bytes", fh.Filename, maxSize))
			return
		}
	}

	inputs, cleanup, err := h.saveToTemp(files)
	defer cleanup()
	if err != nil {
		Error(c, err)
		return
	}

	namespaceID := c.PostForm("namespace_id")

	result, err := h.svc.Upload.Process(c.Request.Context(), inputs, namespaceID, nil)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// saveToTemp 将上传内容写入临时目录
// 返回的 cleanup 在任何退出路径上删除已写入的文件
func (h *UploadHandler) saveToTemp(files []*multipart.FileHeader) ([]upload.FileInput, func(), error) {
	tempDir := h.svc.Config.Upload.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	saved := make([]string, 0, len(files))
	cleanup := func() {
		for _, path := range saved {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("Warning: failed to remove temp file %s: %v", path, err)
			}
		}
	}

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, cleanup, fmt.Errorf("failed to create temp directory: %w", err)
	}

	inputs := make([]upload.FileInput, 0, len(files))
	for _, fh := range files {
		ext := filepath.Ext(fh.Filename)
		path := filepath.Join(tempDir, uuid.New().String()+ext)

		src, err := fh.Open()
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}

		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			return nil, cleanup, fmt.Errorf("failed to create temp file: %w", err)
		}

		_, copyErr := dst.ReadFrom(src)
		src.Close()
		dst.Close()
		if copyErr != nil {
			return nil, cleanup, fmt.Errorf("failed to write temp file: %w", copyErr)
		}

		saved = append(saved, path)
		inputs = append(inputs, upload.FileInput{
			Path:         path,
			OriginalName: fh.Filename,
		})
	}

	return inputs, cleanup, nil
}
