// Package session 提供对话会话的暂存与落库协调。
// 会话在显式保存前只存在于内存/Redis，消息和文件先进入 pending 队列，
// 保存后绑定到数据库中的 Chat，后续轮次直接写库。
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PendingMessage 未落库的消息
type PendingMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingDocument 未落库的文件记录
type PendingDocument struct {
	OriginalName string `json:"original_name"`
	URL          string `json:"url"`
}

// Session 会话状态
// ChatID 为空表示未绑定（对话尚未保存）
type Session struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	ChatID           string            `json:"chat_id,omitempty"`
	Kind             string            `json:"kind"`
	NamespaceID      string            `json:"namespace_id,omitempty"`
	PendingMessages  []PendingMessage  `json:"pending_messages"`
	PendingDocuments []PendingDocument `json:"pending_documents"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewSession 创建未绑定的新会话
func NewSession(userID, kind string) *Session {
	now := time.Now()
	return &Session{
		ID:               uuid.New().String(),
		UserID:           userID,
		Kind:             kind,
		PendingMessages:  []PendingMessage{},
		PendingDocuments: []PendingDocument{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Bound 会话是否已绑定到持久化对话
func (s *Session) Bound() bool {
	return s.ChatID != ""
}

// Marshal 序列化会话快照
func (s *Session) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// Unmarshal 反序列化会话快照
func Unmarshal(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.PendingMessages == nil {
		sess.PendingMessages = []PendingMessage{}
	}
	if sess.PendingDocuments == nil {
		sess.PendingDocuments = []PendingDocument{}
	}
	return &sess, nil
}
