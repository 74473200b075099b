package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/model"
	"github.com/insight-ai/insight/internal/repository"
)

// ErrChatNotOwned 对话属于其他用户
var ErrChatNotOwned = errors.New("chat does not belong to user")

// Reconciler 会话落库协调器
// 未绑定的会话将轮次和文件暂存在 pending 队列，显式保存时一次性写库；
// 已绑定的会话每个轮次直接写库
type Reconciler struct {
	store repository.ChatStore
}

// NewReconciler 创建协调器
func NewReconciler(store repository.ChatStore) *Reconciler {
	return &Reconciler{store: store}
}

// RecordTurn 记录一个轮次（用户消息 + 系统回复）
// 未绑定时追加到暂存队列；已绑定时在一个事务内成对写库。
// 写库失败时会话状态保持不变，由调用方回退界面状态。
func (r *Reconciler) RecordTurn(ctx context.Context, sess *Session, userContent, sysContent string) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}

	now := time.Now()

	if !sess.Bound() {
		sess.PendingMessages = append(sess.PendingMessages,
			PendingMessage{Role: model.RoleUser, Content: userContent, Timestamp: now},
			PendingMessage{Role: model.RoleSystem, Content: sysContent, Timestamp: now.Add(time.Millisecond)},
		)
		sess.UpdatedAt = now
		return nil
	}

	userMsg := &model.Message{
		ID:        uuid.New().String(),
		ChatID:    sess.ChatID,
		Role:      model.RoleUser,
		Content:   userContent,
		Timestamp: now,
	}
	sysMsg := &model.Message{
		ID:        uuid.New().String(),
		ChatID:    sess.ChatID,
		Role:      model.RoleSystem,
		Content:   sysContent,
		Timestamp: now.Add(time.Millisecond),
	}

	if err := r.store.CreateMessagePair(userMsg, sysMsg); err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}

	sess.UpdatedAt = now
	return nil
}

// AttachFiles 将上传成功的文件合并进会话
// 同名文件先到先得，后续同名记录被忽略。
// 已绑定的会话直接写库（数据库层按文件名去重）。
func (r *Reconciler) AttachFiles(ctx context.Context, sess *Session, files []PendingDocument) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}
	if len(files) == 0 {
		return nil
	}

	if sess.Bound() {
		docs := make([]*model.Document, 0, len(files))
		seen := make(map[string]bool)
		for _, f := range files {
			if seen[f.OriginalName] {
				continue
			}
			seen[f.OriginalName] = true
			docs = append(docs, &model.Document{
				ID:           uuid.New().String(),
				ChatID:       sess.ChatID,
				OriginalName: f.OriginalName,
				URL:          f.URL,
			})
		}
		if err := r.store.CreateDocuments(docs); err != nil {
			return fmt.Errorf("failed to attach files: %w", err)
		}
		sess.UpdatedAt = time.Now()
		return nil
	}

	seen := make(map[string]bool, len(sess.PendingDocuments))
	for _, d := range sess.PendingDocuments {
		seen[d.OriginalName] = true
	}
	for _, f := range files {
		if seen[f.OriginalName] {
			continue
		}
		seen[f.OriginalName] = true
		sess.PendingDocuments = append(sess.PendingDocuments, f)
	}

	sess.UpdatedAt = time.Now()
	return nil
}

// Commit 将会话落库并绑定
// 已绑定时为幂等空操作，直接返回已有 ChatID。
// 创建对话、全部暂存消息和文件在一个事务内完成；失败时会话保持未绑定，
// 数据库中不留下部分数据。
func (r *Reconciler) Commit(ctx context.Context, sess *Session, title string) (string, error) {
	if sess == nil {
		return "", fmt.Errorf("session is required")
	}

	if sess.Bound() {
		return sess.ChatID, nil
	}

	chatID := uuid.New().String()
	chat := &model.Chat{
		ID:          chatID,
		UserID:      sess.UserID,
		Title:       title,
		Type:        sess.Kind,
		NamespaceID: sess.NamespaceID,
	}

	messages := make([]*model.Message, 0, len(sess.PendingMessages))
	for _, pm := range sess.PendingMessages {
		messages = append(messages, &model.Message{
			ID:        uuid.New().String(),
			ChatID:    chatID,
			Role:      pm.Role,
			Content:   pm.Content,
			Timestamp: pm.Timestamp,
		})
	}

	documents := make([]*model.Document, 0, len(sess.PendingDocuments))
	seen := make(map[string]bool, len(sess.PendingDocuments))
	for _, pd := range sess.PendingDocuments {
		if seen[pd.OriginalName] {
			continue
		}
		seen[pd.OriginalName] = true
		documents = append(documents, &model.Document{
			ID:           uuid.New().String(),
			ChatID:       chatID,
			OriginalName: pd.OriginalName,
			URL:          pd.URL,
		})
	}

	if err := r.store.CreateChatWithHistory(chat, messages, documents); err != nil {
		return "", fmt.Errorf("failed to commit session: %w", err)
	}

	sess.ChatID = chatID
	sess.PendingMessages = []PendingMessage{}
	sess.PendingDocuments = []PendingDocument{}
	sess.UpdatedAt = time.Now()

	return chatID, nil
}

// Resume 从持久化对话恢复会话
// 只有对话的归属用户可以恢复；恢复出的会话已绑定，暂存队列为空
func (r *Reconciler) Resume(ctx context.Context, chatID, userID string) (*Session, error) {
	chat, err := r.store.GetChatByID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat.UserID != userID {
		return nil, ErrChatNotOwned
	}

	now := time.Now()
	return &Session{
		ID:               uuid.New().String(),
		UserID:           chat.UserID,
		ChatID:           chat.ID,
		Kind:             chat.Type,
		NamespaceID:      chat.NamespaceID,
		PendingMessages:  []PendingMessage{},
		PendingDocuments: []PendingDocument{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// History 获取会话的完整消息历史
// 已绑定时读取数据库（时间升序），未绑定时返回暂存消息
func (r *Reconciler) History(ctx context.Context, sess *Session) ([]PendingMessage, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is required")
	}

	if !sess.Bound() {
		history := make([]PendingMessage, len(sess.PendingMessages))
		copy(history, sess.PendingMessages)
		return history, nil
	}

	messages, err := r.store.GetMessagesByChatID(sess.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	history := make([]PendingMessage, 0, len(messages))
	for _, msg := range messages {
		history = append(history, PendingMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return history, nil
}
