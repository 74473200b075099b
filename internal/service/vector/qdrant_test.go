package vector

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

// ========== collectionName 测试 ==========

func TestCollectionName(t *testing.T) {
	if got := collectionName("abc-123"); got != "ns_abc-123" {
		t.Errorf("collectionName() = %q, want %q", got, "ns_abc-123")
	}
}

// ========== toFloat32 测试 ==========

func TestToFloat32(t *testing.T) {
	input := []float64{0.1, -0.5, 2.0}
	got := toFloat32(input)

	if len(got) != len(input) {
		t.Fatalf("length = %d, want %d", len(got), len(input))
	}
	for i, v := range input {
		if got[i] != float32(v) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], float32(v))
		}
	}

	if got := toFloat32(nil); len(got) != 0 {
		t.Errorf("toFloat32(nil) = %v, want empty", got)
	}
}

// ========== hitToSnippet 测试 ==========

func TestHitToSnippet(t *testing.T) {
	hit := &qdrant.ScoredPoint{
		Score: 0.87,
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"filename": "report.pdf",
			"page":     int64(4),
			"chunk":    int64(2),
			"kind":     KindDocument,
			"content":  "chunk text",
		}),
	}

	snippet := hitToSnippet(hit)
	if snippet == nil {
		t.Fatal("hitToSnippet() = nil")
	}

	if snippet.Score != 0.87 {
		t.Errorf("score = %v, want 0.87", snippet.Score)
	}
	if snippet.Filename != "report.pdf" {
		t.Errorf("filename = %q", snippet.Filename)
	}
	if snippet.Page != 4 {
		t.Errorf("page = %d, want 4", snippet.Page)
	}
	if snippet.Kind != KindDocument {
		t.Errorf("kind = %q", snippet.Kind)
	}
	if snippet.Content != "chunk text" {
		t.Errorf("content = %q", snippet.Content)
	}
}

func TestHitToSnippetNilPayload(t *testing.T) {
	hit := &qdrant.ScoredPoint{Score: 0.5}
	if snippet := hitToSnippet(hit); snippet != nil {
		t.Errorf("hitToSnippet() = %+v, want nil for missing payload", snippet)
	}
}

func TestHitToSnippetPartialPayload(t *testing.T) {
	hit := &qdrant.ScoredPoint{
		Score: 0.4,
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"filename": "photo.png",
			"kind":     KindImage,
			"content":  "a description",
		}),
	}

	snippet := hitToSnippet(hit)
	if snippet == nil {
		t.Fatal("hitToSnippet() = nil")
	}
	if snippet.Page != 0 {
		t.Errorf("page = %d, want 0 when absent", snippet.Page)
	}
	if snippet.Kind != KindImage {
		t.Errorf("kind = %q", snippet.Kind)
	}
}
