// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import "github.com/insight-ai/insight/internal/model"

// ChatStore 对话数据访问接口
// Session 协调层依赖该接口，测试时可以用内存实现替换
type ChatStore interface {
	CreateChatWithHistory(chat *model.Chat, messages []*model.Message, documents []*model.Document) error
	GetChatByID(id string) (*model.Chat, error)
	CreateMessagePair(userMsg, sysMsg *model.Message) error
	CreateDocuments(documents []*model.Document) error
	GetMessagesByChatID(chatID string) ([]*model.Message, error)
	GetDocumentsByChatID(chatID string) ([]*model.Document, error)
}

// 确保 ChatRepository 实现了接口
var _ ChatStore = (*ChatRepository)(nil)
