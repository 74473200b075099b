// Package upload 提供上传流水线单元测试
package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/insight-ai/insight/internal/config"
	"github.com/insight-ai/insight/internal/service/vector"
)

// mockEmbedder 每个输入返回固定维度向量
type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{1, 2, 3}
	}
	return vectors, nil
}

// mockVisionModel 固定描述
type mockVisionModel struct {
	response string
	err      error
}

func (m *mockVisionModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.response}, nil
}

func (m *mockVisionModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func (m *mockVisionModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// mockVectorStore 记录 upsert 调用
type mockVectorStore struct {
	mu       sync.Mutex
	upserted map[string][]vector.Vector
	err      error
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{upserted: make(map[string][]vector.Vector)}
}

func (m *mockVectorStore) Upsert(ctx context.Context, namespaceID string, vectors []vector.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserted[namespaceID] = append(m.upserted[namespaceID], vectors...)
	return nil
}

func (m *mockVectorStore) Query(ctx context.Context, namespaceID string, emb []float64, topK int) ([]vector.Snippet, error) {
	return nil, nil
}

func (m *mockVectorStore) Count(ctx context.Context, namespaceID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.upserted[namespaceID])), nil
}

func newTestPipeline(emb *mockEmbedder, vm *mockVisionModel, store *mockVectorStore) *Pipeline {
	return NewPipeline(emb, vm, store, &config.UploadConfig{
		ChunkSize:    1024,
		ChunkOverlap: 100,
	})
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// ========== Process 测试 ==========

func TestProcessTextDocument(t *testing.T) {
	emb := &mockEmbedder{}
	store := newMockVectorStore()
	p := newTestPipeline(emb, &mockVisionModel{response: "unused"}, store)

	path := writeTempFile(t, "notes.txt", strings.Repeat("hello world ", 300)) // > 1 窗口

	result, err := p.Process(context.Background(), []FileInput{
		{Path: path, OriginalName: "notes.txt"},
	}, "", nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// 未指定命名空间时生成新的
	if result.NamespaceID == "" {
		t.Fatal("namespace id not allocated")
	}

	if len(result.Files) != 1 {
		t.Fatalf("file results = %d, want 1", len(result.Files))
	}
	fr := result.Files[0]
	if fr.Error != "" || fr.Skipped {
		t.Fatalf("file result = %+v", fr)
	}
	if fr.Kind != fileKindDocument {
		t.Errorf("kind = %s, want document", fr.Kind)
	}
	if fr.Vectors < 2 {
		t.Errorf("vectors = %d, want multiple chunks", fr.Vectors)
	}

	stored := store.upserted[result.NamespaceID]
	if len(stored) != fr.Vectors {
		t.Errorf("upserted = %d, want %d", len(stored), fr.Vectors)
	}
	for i, v := range stored {
		if v.Payload.Filename != "notes.txt" || v.Payload.Kind != vector.KindDocument {
			t.Errorf("payload = %+v", v.Payload)
		}
		// 块序号从 1 开始连续编号
		if v.Payload.Chunk != i+1 {
			t.Errorf("chunk index = %d, want %d", v.Payload.Chunk, i+1)
		}
	}
}

func TestProcessKeepsSuppliedNamespace(t *testing.T) {
	store := newMockVectorStore()
	p := newTestPipeline(&mockEmbedder{}, &mockVisionModel{}, store)

	path := writeTempFile(t, "a.txt", "short content")

	result, err := p.Process(context.Background(), []FileInput{
		{Path: path, OriginalName: "a.txt"},
	}, "ns-existing", nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if result.NamespaceID != "ns-existing" {
		t.Errorf("namespace = %s, want ns-existing", result.NamespaceID)
	}
	if len(store.upserted["ns-existing"]) == 0 {
		t.Error("vectors not written to supplied namespace")
	}
}

func TestProcessUnsupportedFile(t *testing.T) {
	store := newMockVectorStore()
	p := newTestPipeline(&mockEmbedder{}, &mockVisionModel{}, store)

	result, err := p.Process(context.Background(), []FileInput{
		{Path: "/nonexistent/archive.zip", OriginalName: "archive.zip"},
	}, "ns-1", nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	fr := result.Files[0]
	if !fr.Skipped {
		t.Error("unsupported file not marked skipped")
	}
	if fr.Error == "" {
		t.Error("skipped file missing reason")
	}
}

func TestProcessPerFileIsolation(t *testing.T) {
	store := newMockVectorStore()
	p := newTestPipeline(&mockEmbedder{}, &mockVisionModel{}, store)

	good := writeTempFile(t, "good.txt", "some useful content")

	result, err := p.Process(context.Background(), []FileInput{
		{Path: good, OriginalName: "good.txt"},
		{Path: "/nonexistent/bad.txt", OriginalName: "bad.txt"},
	}, "ns-1", nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(result.Files) != 2 {
		t.Fatalf("file results = %d, want 2", len(result.Files))
	}

	// 结果顺序与输入一致，失败不影响其他文件
	if result.Files[0].Error != "" {
		t.Errorf("good file failed: %s", result.Files[0].Error)
	}
	if result.Files[1].Error == "" {
		t.Error("bad file reported success")
	}
	if len(store.upserted["ns-1"]) == 0 {
		t.Error("good file produced no vectors")
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	p := newTestPipeline(&mockEmbedder{}, &mockVisionModel{}, newMockVectorStore())

	if _, err := p.Process(context.Background(), nil, "", nil); err == nil {
		t.Fatal("Process() expected error for empty batch")
	}
}

func TestProcessEmbedderFailure(t *testing.T) {
	store := newMockVectorStore()
	p := newTestPipeline(&mockEmbedder{err: errors.New("quota")}, &mockVisionModel{}, store)

	path := writeTempFile(t, "a.txt", "content")

	result, err := p.Process(context.Background(), []FileInput{
		{Path: path, OriginalName: "a.txt"},
	}, "ns-1", nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if result.Files[0].Error == "" {
		t.Error("embedder failure not reported in file result")
	}
	if len(store.upserted["ns-1"]) != 0 {
		t.Error("vectors written despite embed failure")
	}
}

func TestProcessImage(t *testing.T) {
	store := newMockVectorStore()
	vm := &mockVisionModel{response: "A detailed description of the picture."}
	p := newTestPipeline(&mockEmbedder{}, vm, store)

	path := writeTempFile(t, "photo.png", "\x89PNG fake image bytes")

	var stages []Stage
	result, err := p.Process(context.Background(), []FileInput{
		{Path: path, OriginalName: "photo.png"},
	}, "ns-img", func(stage Stage) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	fr := result.Files[0]
	if fr.Error != "" {
		t.Fatalf("image processing failed: %s", fr.Error)
	}
	if fr.Vectors != 1 {
		t.Errorf("vectors = %d, want 1", fr.Vectors)
	}

	stored := store.upserted["ns-img"]
	if len(stored) != 1 {
		t.Fatalf("upserted = %d, want 1", len(stored))
	}
	if stored[0].Payload.Kind != vector.KindImage {
		t.Errorf("kind = %s, want %s", stored[0].Payload.Kind, vector.KindImage)
	}
	if stored[0].Payload.Content != vm.response {
		t.Errorf("content = %q, want vision description", stored[0].Payload.Content)
	}

	// 进度回调覆盖各阶段
	if len(stages) == 0 {
		t.Error("progress callback never invoked")
	}
}
