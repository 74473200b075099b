package media

import (
	"context"
	"io"
)

// Storage 媒体文件存储接口
type Storage interface {
	// Save 保存文件，返回存储路径
	Save(ctx context.Context, req *SaveRequest) (string, error)
	// Get 获取文件内容
	Get(ctx context.Context, storagePath string) (io.ReadCloser, error)
	// Delete 删除文件
	Delete(ctx context.Context, storagePath string) error
	// GetURL 获取文件的访问URL
	GetURL(storagePath string) string
}

// SaveRequest 保存文件请求
type SaveRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	UserID      string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinIO StorageType = "minio"
)
