package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/insight-ai/insight/internal/model"
)

// ChatRepository 对话数据访问
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建对话仓库
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateChatWithHistory 创建对话并写入累积的消息和文件记录
// 单事务完成，失败时不留下任何行
func (r *ChatRepository) CreateChatWithHistory(chat *model.Chat, messages []*model.Message, documents []*model.Document) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		if len(messages) > 0 {
			if err := tx.Create(messages).Error; err != nil {
				return err
			}
		}
		if len(documents) > 0 {
			// 同名文件不重复插入
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(documents).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChatByID 获取对话（含消息和文件，消息按时间升序）
func (r *ChatRepository) GetChatByID(id string) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		Preload("Documents").
		Where("id = ?", id).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ChatSummary 对话列表项
type ChatSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	FirstMessage string `json:"first_message"`
	MessageCount int64  `json:"message_count"`
}

// ListChatsByUser 列出用户的对话（按创建时间倒序）
func (r *ChatRepository) ListChatsByUser(userID string) ([]*ChatSummary, error) {
	var chats []*model.Chat
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&chats).Error; err != nil {
		return nil, err
	}

	summaries := make([]*ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := &ChatSummary{
			ID:    chat.ID,
			Title: chat.Title,
			Type:  chat.Type,
		}

		var first model.Message
		if err := r.db.Where("chat_id = ?", chat.ID).Order("timestamp ASC").First(&first).Error; err == nil {
			summary.FirstMessage = first.Content
		}
		r.db.Model(&model.Message{}).Where("chat_id = ?", chat.ID).Count(&summary.MessageCount)

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// CreateMessagePair 原子写入一轮对话的两条消息
func (r *ChatRepository) CreateMessagePair(userMsg, sysMsg *model.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userMsg).Error; err != nil {
			return err
		}
		return tx.Create(sysMsg).Error
	})
}

// CreateDocuments 批量写入文件记录，(chat_id, original_name) 冲突时跳过
func (r *ChatRepository) CreateDocuments(documents []*model.Document) error {
	if len(documents) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(documents).Error
}

// GetMessagesByChatID 获取对话消息（时间升序）
func (r *ChatRepository) GetMessagesByChatID(chatID string) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("chat_id = ?", chatID).Order("timestamp ASC").Find(&messages).Error
	return messages, err
}

// GetDocumentsByChatID 获取对话的文件记录
func (r *ChatRepository) GetDocumentsByChatID(chatID string) ([]*model.Document, error) {
	var documents []*model.Document
	err := r.db.Where("chat_id = ?", chatID).Find(&documents).Error
	return documents, err
}
