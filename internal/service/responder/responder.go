// Package responder 实现基于向量检索的问答。
// 回答只依据检索到的片段生成；检索不到内容或任何环节出错时
// 返回固定文案，错误不向调用方传播。
package responder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/insight-ai/insight/internal/service/vector"
)

const (
	// 检索召回数量
	defaultTopK = 5
	// 返回给前端的来源数量上限
	maxSources = 3
	// 来源摘录长度上限
	maxSnippetLen = 250

	// 固定回复文案
	replyNoContext   = "I don't have enough information to answer your query."
	replyError       = "An error occurred while processing your request."
	replyNoNamespace = "This chat has no indexed content yet. Please upload a file first."

	// 查询内指定文件的前缀语法: "file: report.pdf What does it say about X?"
	fileFilterPrefix = "file:"
)

// Source 回答引用的来源
type Source struct {
	Filename string  `json:"filename"`
	Page     int     `json:"page,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	Score    float32 `json:"score"`
	Snippet  string  `json:"snippet"`
}

// Reply 问答结果
type Reply struct {
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// Turn 历史轮次
type Turn struct {
	Role    string
	Content string
}

// Responder 检索增强问答服务
type Responder struct {
	embedder  embedding.Embedder
	chatModel model.ChatModel
	store     vector.Store
	topK      int
}

// NewResponder 创建问答服务
func NewResponder(embedder embedding.Embedder, chatModel model.ChatModel, store vector.Store, topK int) *Responder {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Responder{
		embedder:  embedder,
		chatModel: chatModel,
		store:     store,
		topK:      topK,
	}
}

// Answer 回答问题
// 永远返回可展示的回复，内部错误降级为固定文案，error 恒为 nil
func (r *Responder) Answer(ctx context.Context, query, namespaceID string, history []Turn) (*Reply, error) {
	if namespaceID == "" {
		// 无命名空间说明没有任何已索引内容，不发起外部调用
		return &Reply{Content: replyNoNamespace}, nil
	}

	query, filterFile := extractFileFilter(query)

	snippets, err := r.retrieve(ctx, query, namespaceID)
	if err != nil {
		log.Printf("Warning: retrieval failed: %v", err)
		return &Reply{Content: replyError}, nil
	}

	if filterFile != "" {
		snippets = filterByFilename(snippets, filterFile)
	}

	if len(snippets) == 0 {
		return &Reply{Content: replyNoContext}, nil
	}

	answer, err := r.generate(ctx, query, snippets, history)
	if err != nil {
		log.Printf("Warning: generation failed: %v", err)
		return &Reply{Content: replyError}, nil
	}

	return &Reply{
		Content: answer,
		Sources: buildSources(snippets),
	}, nil
}

// retrieve 向量检索
func (r *Responder) retrieve(ctx context.Context, query, namespaceID string) ([]vector.Snippet, error) {
	embeddings, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	snippets, err := r.store.Query(ctx, namespaceID, embeddings[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}
	return snippets, nil
}

// generate 调用模型生成回答
func (r *Responder) generate(ctx context.Context, query string, snippets []vector.Snippet, history []Turn) (string, error) {
	prompt := buildPrompt(query, snippets, history)

	messages := []*schema.Message{
		schema.UserMessage(prompt),
	}

	resp, err := r.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return resp.Content, nil
}

// buildPrompt 组装提示词
// 上下文片段 + 扁平化历史 + 限定只依据上下文回答的指令
func buildPrompt(query string, snippets []vector.Snippet, history []Turn) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant. Answer the question using ONLY the context below. ")
	sb.WriteString("If the context does not contain the answer, say you don't have enough information.\n\n")

	sb.WriteString("Context:\n")
	for i, s := range snippets {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(formatSnippetHeader(s))
		sb.WriteString(":\n")
		sb.WriteString(s.Content)
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			if turn.Role == "user" {
				sb.WriteString("User: ")
			} else {
				sb.WriteString("AI: ")
			}
			sb.WriteString(turn.Content)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(query)

	return sb.String()
}

// formatSnippetHeader 片段标题: "report.pdf (Page 3)" 或 "photo.png (image)"
func formatSnippetHeader(s vector.Snippet) string {
	if s.Kind == vector.KindDocument && s.Page > 0 {
		return fmt.Sprintf("%s (Page %d)", s.Filename, s.Page)
	}
	if s.Kind != "" && s.Kind != vector.KindDocument {
		return fmt.Sprintf("%s (%s)", s.Filename, s.Kind)
	}
	return s.Filename
}

// buildSources 取前若干命中作为回答来源，摘录截断
func buildSources(snippets []vector.Snippet) []Source {
	n := len(snippets)
	if n > maxSources {
		n = maxSources
	}

	sources := make([]Source, 0, n)
	for _, s := range snippets[:n] {
		snippet := truncateSnippet(s.Content)
		sources = append(sources, Source{
			Filename: s.Filename,
			Page:     s.Page,
			Kind:     s.Kind,
			Score:    s.Score,
			Snippet:  snippet,
		})
	}
	return sources
}

// truncateSnippet 截断摘录，多字节字符不在边界处被切断
func truncateSnippet(s string) string {
	if len(s) <= maxSnippetLen {
		return s
	}
	cut := maxSnippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// extractFileFilter 解析查询中的文件过滤语法
// "file: report.pdf what is X" → ("what is X", "report.pdf")
func extractFileFilter(query string) (string, string) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToLower(trimmed), fileFilterPrefix) {
		return query, ""
	}

	rest := strings.TrimSpace(trimmed[len(fileFilterPrefix):])
	if rest == "" {
		return query, ""
	}

	parts := strings.SplitN(rest, " ", 2)
	filename := parts[0]
	if len(parts) == 1 {
		return "", filename
	}
	return strings.TrimSpace(parts[1]), filename
}

// filterByFilename 只保留指定文件的命中
func filterByFilename(snippets []vector.Snippet, filename string) []vector.Snippet {
	filtered := make([]vector.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if s.Filename == filename {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
