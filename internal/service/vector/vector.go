// Package vector 封装外部向量检索服务
// 每个对话的命名空间对应一个独立的向量集合
package vector

import "context"

// 向量元数据中的来源类别
const (
	KindDocument = "document"
	KindImage    = "image-analysis"
	KindVideo    = "video-analysis"
)

// Vector 待写入的向量
type Vector struct {
	ID      string
	Values  []float64
	Payload Payload
}

// Payload 向量元数据
type Payload struct {
	Filename string
	Page     int
	Chunk    int
	Kind     string
	Content  string
}

// Snippet 检索命中的片段
type Snippet struct {
	Score    float32
	Filename string
	Page     int
	Kind     string
	Content  string
}

// Store 向量库访问接口
type Store interface {
	// Upsert 将向量写入命名空间，集合不存在时自动创建
	Upsert(ctx context.Context, namespaceID string, vectors []Vector) error
	// Query 在命名空间内检索 topK 个最近邻片段
	Query(ctx context.Context, namespaceID string, embedding []float64, topK int) ([]Snippet, error)
	// Count 返回命名空间内的向量数量，可用作存在性检查
	Count(ctx context.Context, namespaceID string) (uint64, error)
}
