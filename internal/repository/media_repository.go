package repository

import (
	"gorm.io/gorm"

	"github.com/insight-ai/insight/internal/model"
)

// MediaRepository 媒体文件数据访问
type MediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository 创建媒体文件仓库
func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create 写入媒体文件记录
func (r *MediaRepository) Create(file *model.MediaFile) error {
	return r.db.Create(file).Error
}

// GetByID 获取媒体文件记录
func (r *MediaRepository) GetByID(id string) (*model.MediaFile, error) {
	var file model.MediaFile
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// Delete 删除媒体文件记录
func (r *MediaRepository) Delete(id string) error {
	return r.db.Delete(&model.MediaFile{}, "id = ?", id).Error
}
