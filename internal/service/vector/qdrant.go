package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/insight-ai/insight/internal/config"
)

// 集合名前缀，命名空间 id 映射为 ns_<id>
const collectionPrefix = "ns_"

// QdrantStore Qdrant 向量库适配
type QdrantStore struct {
	client    *qdrant.Client
	dimension uint64
}

// NewQdrantStore 创建 Qdrant 适配器
func NewQdrantStore(cfg *config.VectorConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantStore{
		client:    client,
		dimension: cfg.Dimension,
	}, nil
}

// Close 关闭连接
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// collectionName 命名空间对应的集合名
func collectionName(namespaceID string) string {
	return collectionPrefix + namespaceID
}

// ensureCollection 确保命名空间的集合存在
func (s *QdrantStore) ensureCollection(ctx context.Context, name string) error {
	existing, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, c := range existing {
		if c == name {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	return nil
}

// Upsert 将向量写入命名空间
func (s *QdrantStore) Upsert(ctx context.Context, namespaceID string, vectors []Vector) error {
	if namespaceID == "" {
		return fmt.Errorf("namespace id is required")
	}
	if len(vectors) == 0 {
		return nil
	}

	name := collectionName(namespaceID)
	if err := s.ensureCollection(ctx, name); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, v := range vectors {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(v.ID),
			Vectors: qdrant.NewVectors(toFloat32(v.Values)...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"filename": v.Payload.Filename,
				"page":     int64(v.Payload.Page),
				"chunk":    int64(v.Payload.Chunk),
				"kind":     v.Payload.Kind,
				"content":  v.Payload.Content,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	return nil
}

// Query 在命名空间内检索最近邻片段
func (s *QdrantStore) Query(ctx context.Context, namespaceID string, embedding []float64, topK int) ([]Snippet, error) {
	if namespaceID == "" {
		return nil, fmt.Errorf("namespace id is required")
	}
	if topK <= 0 {
		topK = 5
	}

	limit := uint64(topK)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName(namespaceID),
		Query:          qdrant.NewQuery(toFloat32(embedding)...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	snippets := make([]Snippet, 0, len(hits))
	for _, hit := range hits {
		snippet := hitToSnippet(hit)
		if snippet != nil {
			snippets = append(snippets, *snippet)
		}
	}

	return snippets, nil
}

// Count 返回命名空间内的向量数量
func (s *QdrantStore) Count(ctx context.Context, namespaceID string) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collectionName(namespaceID),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return count, nil
}

// hitToSnippet 将检索命中转换为片段
func hitToSnippet(hit *qdrant.ScoredPoint) *Snippet {
	payload := hit.GetPayload()
	if payload == nil {
		return nil
	}

	snippet := &Snippet{
		Score: hit.GetScore(),
	}
	if val, ok := payload["filename"]; ok {
		snippet.Filename = extractStringValue(val)
	}
	if val, ok := payload["page"]; ok {
		snippet.Page = int(extractIntValue(val))
	}
	if val, ok := payload["kind"]; ok {
		snippet.Kind = extractStringValue(val)
	}
	if val, ok := payload["content"]; ok {
		snippet.Content = extractStringValue(val)
	}

	return snippet
}

// extractStringValue 从 qdrant.Value 提取字符串值
func extractStringValue(val *qdrant.Value) string {
	if val == nil {
		return ""
	}
	return val.GetStringValue()
}

// extractIntValue 从 qdrant.Value 提取整数值
func extractIntValue(val *qdrant.Value) int64 {
	if val == nil {
		return 0
	}
	if intVal := val.GetIntegerValue(); intVal != 0 {
		return intVal
	}
	if dblVal := val.GetDoubleValue(); dblVal != 0 {
		return int64(dblVal)
	}
	return 0
}

// toFloat32 转换向量精度，Qdrant 接口使用 float32
func toFloat32(values []float64) []float32 {
	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = float32(v)
	}
	return result
}

var _ Store = (*QdrantStore)(nil)
