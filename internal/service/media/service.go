package media

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/config"
	"github.com/insight-ai/insight/internal/model"
	"github.com/insight-ai/insight/internal/repository"
)

// Service 媒体文件服务
type Service struct {
	repo        *repository.MediaRepository
	storage     Storage
	storageType StorageType
}

// NewService 创建媒体文件服务
func NewService(repo *repository.MediaRepository, storage Storage, storageType StorageType) *Service {
	return &Service{
		repo:        repo,
		storage:     storage,
		storageType: storageType,
	}
}

// NewServiceFromConfig 从配置创建媒体文件服务
func NewServiceFromConfig(repo *repository.MediaRepository, cfg *config.MediaConfig) (*Service, error) {
	var storage Storage
	var err error
	storageType := StorageType(cfg.Type)

	switch storageType {
	case StorageTypeLocal:
		basePath := cfg.Local.BasePath
		if basePath == "" {
			basePath = "./data/media"
		}
		urlPrefix := cfg.Local.URLPrefix
		if urlPrefix == "" {
			urlPrefix = "/media"
		}
		storage, err = NewLocalStorage(basePath, urlPrefix)

	case StorageTypeMinIO:
		if cfg.MinIO.Endpoint == "" || cfg.MinIO.AccessKey == "" || cfg.MinIO.SecretKey == "" || cfg.MinIO.Bucket == "" {
			return nil, fmt.Errorf("missing required MinIO config")
		}
		urlPrefix := cfg.MinIO.URLPrefix
		if urlPrefix == "" {
			urlPrefix = fmt.Sprintf("%s/%s", cfg.MinIO.Endpoint, cfg.MinIO.Bucket)
		}
		storage, err = NewMinIOStorage(&MinIOConfig{
			Endpoint:   cfg.MinIO.Endpoint,
			AccessKey:  cfg.MinIO.AccessKey,
			SecretKey:  cfg.MinIO.SecretKey,
			BucketName: cfg.MinIO.Bucket,
			UseSSL:     cfg.MinIO.UseSSL,
			URLPrefix:  urlPrefix,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	return NewService(repo, storage, storageType), nil
}

// SaveFileRequest 保存文件请求
type SaveFileRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	UserID      string
}

// SaveFile 保存文件并写入记录
func (s *Service) SaveFile(ctx context.Context, req *SaveFileRequest) (*model.MediaFile, error) {
	storagePath, err := s.storage.Save(ctx, &SaveRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		Reader:      req.Reader,
		UserID:      req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	mediaFile := &model.MediaFile{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		OriginalName: req.FileName,
		ContentType:  req.ContentType,
		Size:         req.Size,
		StorageType:  string(s.storageType),
		StoragePath:  storagePath,
		URL:          s.storage.GetURL(storagePath),
	}

	if err := s.repo.Create(mediaFile); err != nil {
		// 数据库写入失败时回收已存储的文件
		_ = s.storage.Delete(ctx, storagePath)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	return mediaFile, nil
}

// SaveFileFromPath 从本地路径保存文件
func (s *Service) SaveFileFromPath(ctx context.Context, filePath, fileName, contentType, userID string) (*model.MediaFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return s.SaveFile(ctx, &SaveFileRequest{
		FileName:    fileName,
		ContentType: contentType,
		Size:        info.Size(),
		Reader:      file,
		UserID:      userID,
	})
}

// GetFile 获取文件记录和内容
func (s *Service) GetFile(ctx context.Context, id string) (*model.MediaFile, io.ReadCloser, error) {
	mediaFile, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, fmt.Errorf("file not found: %w", err)
	}

	reader, err := s.storage.Get(ctx, mediaFile.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get file content: %w", err)
	}

	return mediaFile, reader, nil
}

// DeleteFile 删除文件及记录
func (s *Service) DeleteFile(ctx context.Context, id string) error {
	mediaFile, err := s.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("file not found: %w", err)
	}

	// 先删存储再删记录
	if err := s.storage.Delete(ctx, mediaFile.StoragePath); err != nil {
		return fmt.Errorf("failed to delete file from storage: %w", err)
	}

	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}
