package model

import "time"

// 对话类型对应上传内容的类别
const (
	ChatTypeDocument = "DOCUMENT"
	ChatTypeImage    = "IMAGE"
	ChatTypeVideo    = "VIDEO"
	ChatTypeAI       = "AI"
)

// 消息角色
const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// Chat 对话
// 首次显式保存时创建；类型和命名空间创建后不再变化
type Chat struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"index;size:64;not null" json:"user_id"`
	Title       string     `gorm:"size:255" json:"title"`
	Type        string     `gorm:"size:20;index" json:"type"`
	NamespaceID string     `gorm:"size:36" json:"namespace_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	Messages    []Message  `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
	Documents   []Document `gorm:"foreignKey:ChatID" json:"documents,omitempty"`
}

// Message 消息
// 按轮次成对写入（user 在前 system 在后），只追加不修改
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID    string    `gorm:"index;size:36;not null" json:"chat_id"`
	Role      string    `gorm:"size:20" json:"role"` // user, system
	Content   string    `gorm:"type:text" json:"content"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Document 上传文件记录
// 同一对话内按原始文件名唯一
type Document struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID       string    `gorm:"size:36;not null;uniqueIndex:idx_chat_filename" json:"chat_id"`
	OriginalName string    `gorm:"size:255;not null;uniqueIndex:idx_chat_filename" json:"original_name"`
	URL          string    `gorm:"size:1024" json:"url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chats"
}

func (Message) TableName() string {
	return "messages"
}

func (Document) TableName() string {
	return "documents"
}
