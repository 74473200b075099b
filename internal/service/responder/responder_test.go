// Package responder 提供问答服务单元测试
package responder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/insight-ai/insight/internal/service/vector"
)

// mockEmbedder 固定返回单位向量
type mockEmbedder struct {
	err       error
	callCount int
}

func (m *mockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// mockChatModel 固定回复
type mockChatModel struct {
	response  string
	err       error
	callCount int
	lastInput string
}

func (m *mockChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.callCount++
	if len(messages) > 0 {
		m.lastInput = messages[len(messages)-1].Content
	}
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.response}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func (m *mockChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// mockVectorStore 固定命中集合
type mockVectorStore struct {
	snippets  []vector.Snippet
	err       error
	callCount int
}

func (m *mockVectorStore) Upsert(ctx context.Context, namespaceID string, vectors []vector.Vector) error {
	return nil
}

func (m *mockVectorStore) Query(ctx context.Context, namespaceID string, emb []float64, topK int) ([]vector.Snippet, error) {
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return m.snippets, nil
}

func (m *mockVectorStore) Count(ctx context.Context, namespaceID string) (uint64, error) {
	return uint64(len(m.snippets)), nil
}

func newTestResponder(emb *mockEmbedder, cm *mockChatModel, store *mockVectorStore) *Responder {
	return NewResponder(emb, cm, store, 5)
}

// ========== Answer 测试 ==========

func TestAnswerEmptyNamespace(t *testing.T) {
	emb := &mockEmbedder{}
	cm := &mockChatModel{response: "should not be used"}
	store := &mockVectorStore{}
	r := newTestResponder(emb, cm, store)

	reply, err := r.Answer(context.Background(), "any question", "", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if reply.Content != replyNoNamespace {
		t.Errorf("reply = %q, want fail-closed text", reply.Content)
	}
	// 无命名空间时不发起外部调用
	if emb.callCount != 0 || store.callCount != 0 || cm.callCount != 0 {
		t.Errorf("external calls made: embed=%d query=%d generate=%d",
			emb.callCount, store.callCount, cm.callCount)
	}
}

func TestAnswerZeroHits(t *testing.T) {
	emb := &mockEmbedder{}
	cm := &mockChatModel{response: "should not be used"}
	store := &mockVectorStore{snippets: nil}
	r := newTestResponder(emb, cm, store)

	reply, err := r.Answer(context.Background(), "unknown topic", "ns-1", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if reply.Content != replyNoContext {
		t.Errorf("reply = %q, want %q", reply.Content, replyNoContext)
	}
	if reply.Sources != nil {
		t.Errorf("sources = %v, want nil", reply.Sources)
	}
	// 零命中时不调用生成
	if cm.callCount != 0 {
		t.Errorf("generate called %d times, want 0", cm.callCount)
	}
}

func TestAnswerWithHits(t *testing.T) {
	snippets := []vector.Snippet{
		{Score: 0.9, Filename: "a.pdf", Page: 1, Kind: vector.KindDocument, Content: "alpha content"},
		{Score: 0.8, Filename: "a.pdf", Page: 2, Kind: vector.KindDocument, Content: strings.Repeat("b", 400)},
		{Score: 0.7, Filename: "c.png", Kind: vector.KindImage, Content: "image description"},
		{Score: 0.6, Filename: "d.pdf", Page: 5, Kind: vector.KindDocument, Content: "delta"},
		{Score: 0.5, Filename: "e.pdf", Page: 9, Kind: vector.KindDocument, Content: "epsilon"},
	}
	emb := &mockEmbedder{}
	cm := &mockChatModel{response: "Grounded answer."}
	store := &mockVectorStore{snippets: snippets}
	r := newTestResponder(emb, cm, store)

	history := []Turn{
		{Role: "user", Content: "earlier question"},
		{Role: "system", Content: "earlier answer"},
	}

	reply, err := r.Answer(context.Background(), "what is alpha?", "ns-1", history)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if reply.Content != "Grounded answer." {
		t.Errorf("reply = %q", reply.Content)
	}

	// 来源最多 3 条，摘录截断到上限
	if len(reply.Sources) != 3 {
		t.Fatalf("sources = %d, want 3", len(reply.Sources))
	}
	if len(reply.Sources[1].Snippet) != 250 {
		t.Errorf("snippet length = %d, want 250", len(reply.Sources[1].Snippet))
	}

	// 提示词包含全部命中和历史
	if !strings.Contains(cm.lastInput, "alpha content") || !strings.Contains(cm.lastInput, "epsilon") {
		t.Error("prompt missing retrieved context")
	}
	if !strings.Contains(cm.lastInput, "User: earlier question") || !strings.Contains(cm.lastInput, "AI: earlier answer") {
		t.Error("prompt missing flattened history")
	}
}

func TestAnswerRetrievalError(t *testing.T) {
	emb := &mockEmbedder{}
	cm := &mockChatModel{response: "unused"}
	store := &mockVectorStore{err: errors.New("qdrant down")}
	r := newTestResponder(emb, cm, store)

	reply, err := r.Answer(context.Background(), "question", "ns-1", nil)
	if err != nil {
		t.Fatalf("Answer() must not propagate errors, got %v", err)
	}
	if reply.Content != replyError {
		t.Errorf("reply = %q, want apology", reply.Content)
	}
	if cm.callCount != 0 {
		t.Errorf("generate called after retrieval failure")
	}
}

func TestAnswerEmbeddingError(t *testing.T) {
	emb := &mockEmbedder{err: errors.New("embedding quota exceeded")}
	cm := &mockChatModel{response: "unused"}
	store := &mockVectorStore{}
	r := newTestResponder(emb, cm, store)

	reply, err := r.Answer(context.Background(), "question", "ns-1", nil)
	if err != nil {
		t.Fatalf("Answer() must not propagate errors, got %v", err)
	}
	if reply.Content != replyError {
		t.Errorf("reply = %q, want apology", reply.Content)
	}
}

func TestAnswerGenerationError(t *testing.T) {
	emb := &mockEmbedder{}
	cm := &mockChatModel{err: errors.New("model timeout")}
	store := &mockVectorStore{snippets: []vector.Snippet{
		{Score: 0.9, Filename: "a.pdf", Page: 1, Content: "content"},
	}}
	r := newTestResponder(emb, cm, store)

	reply, err := r.Answer(context.Background(), "question", "ns-1", nil)
	if err != nil {
		t.Fatalf("Answer() must not propagate errors, got %v", err)
	}
	if reply.Content != replyError {
		t.Errorf("reply = %q, want apology", reply.Content)
	}
	if reply.Sources != nil {
		t.Errorf("sources = %v, want nil on error", reply.Sources)
	}
}

// ========== 文件过滤测试 ==========

func TestExtractFileFilter(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantQuery    string
		wantFilename string
	}{
		{
			name:         "no filter",
			query:        "what is alpha?",
			wantQuery:    "what is alpha?",
			wantFilename: "",
		},
		{
			name:         "filter with question",
			query:        "file: report.pdf what does it say?",
			wantQuery:    "what does it say?",
			wantFilename: "report.pdf",
		},
		{
			name:         "filter only",
			query:        "file: report.pdf",
			wantQuery:    "",
			wantFilename: "report.pdf",
		},
		{
			name:         "uppercase prefix",
			query:        "File: a.pdf summarize",
			wantQuery:    "summarize",
			wantFilename: "a.pdf",
		},
		{
			name:         "empty after prefix",
			query:        "file: ",
			wantQuery:    "file: ",
			wantFilename: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotQuery, gotFile := extractFileFilter(tt.query)
			if gotQuery != tt.wantQuery || gotFile != tt.wantFilename {
				t.Errorf("extractFileFilter(%q) = (%q, %q), want (%q, %q)",
					tt.query, gotQuery, gotFile, tt.wantQuery, tt.wantFilename)
			}
		})
	}
}

func TestAnswerFileFilterNarrowsToZero(t *testing.T) {
	emb := &mockEmbedder{}
	cm := &mockChatModel{response: "unused"}
	store := &mockVectorStore{snippets: []vector.Snippet{
		{Score: 0.9, Filename: "other.pdf", Page: 1, Content: "content"},
	}}
	r := newTestResponder(emb, cm, store)

	reply, err := r.Answer(context.Background(), "file: wanted.pdf question", "ns-1", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	// 过滤后无命中走零命中路径
	if reply.Content != replyNoContext {
		t.Errorf("reply = %q, want %q", reply.Content, replyNoContext)
	}
	if cm.callCount != 0 {
		t.Errorf("generate called after filter narrowed to zero")
	}
}

// ========== 摘录截断测试 ==========

func TestTruncateSnippetRuneBoundary(t *testing.T) {
	// 每个汉字 3 字节，上限 250 落在字符内部时回退到字符边界
	text := strings.Repeat("数", 100) // 300 字节
	got := truncateSnippet(text)

	if !utf8.ValidString(got) {
		t.Fatalf("truncated snippet is not valid UTF-8: %q", got)
	}
	if len(got) != 249 {
		t.Errorf("truncated length = %d, want 249", len(got))
	}
}

func TestTruncateSnippetShortUnchanged(t *testing.T) {
	text := "short snippet"
	if got := truncateSnippet(text); got != text {
		t.Errorf("truncateSnippet(%q) = %q, want unchanged", text, got)
	}
}

// ========== 片段标题测试 ==========

func TestFormatSnippetHeader(t *testing.T) {
	tests := []struct {
		name    string
		snippet vector.Snippet
		want    string
	}{
		{
			name:    "document with page",
			snippet: vector.Snippet{Filename: "a.pdf", Page: 3, Kind: vector.KindDocument},
			want:    "a.pdf (Page 3)",
		},
		{
			name:    "image analysis",
			snippet: vector.Snippet{Filename: "b.png", Kind: vector.KindImage},
			want:    "b.png (image-analysis)",
		},
		{
			name:    "no metadata",
			snippet: vector.Snippet{Filename: "c.txt"},
			want:    "c.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSnippetHeader(tt.snippet); got != tt.want {
				t.Errorf("formatSnippetHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}
