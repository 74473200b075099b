package model

import "time"

// MediaFile 媒体宿主上的文件记录
type MediaFile struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"index;size:64" json:"user_id"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	Size         int64     `json:"size"`
	StorageType  string    `gorm:"size:20" json:"storage_type"` // local, minio
	StoragePath  string    `gorm:"size:1024" json:"storage_path"`
	URL          string    `gorm:"size:1024" json:"url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (MediaFile) TableName() string {
	return "media_files"
}
