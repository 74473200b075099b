package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/eino-ext/components/document/parser/docx"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/service/vector"
)

// page 解析出的一页文本
type page struct {
	number  int
	content string
}

// processDocument 处理文档类文件
// 逐页解析，按固定窗口分块，嵌入后写入命名空间
func (p *Pipeline) processDocument(ctx context.Context, filePath, originalName, namespaceID string, progress ProgressFunc) (int, error) {
	pages, err := p.parsePages(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to parse document: %w", err)
	}
	notify(progress, StageExtracted)

	vectors := make([]vector.Vector, 0)
	texts := make([]string, 0)
	payloads := make([]vector.Payload, 0)

	for _, pg := range pages {
		chunks := p.chunker.Split(pg.content)
		for i, chunk := range chunks {
			texts = append(texts, chunk)
			// 块序号从 1 开始
			payloads = append(payloads, vector.Payload{
				Filename: originalName,
				Page:     pg.number,
				Chunk:    i + 1,
				Kind:     vector.KindDocument,
				Content:  chunk,
			})
		}
	}

	if len(texts) == 0 {
		return 0, fmt.Errorf("document contains no extractable text")
	}

	embeddings, err := p.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(texts) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(texts))
	}
	notify(progress, StageEmbedded)

	for i, emb := range embeddings {
		vectors = append(vectors, vector.Vector{
			ID:      uuid.New().String(),
			Values:  emb,
			Payload: payloads[i],
		})
	}

	if err := p.store.Upsert(ctx, namespaceID, vectors); err != nil {
		return 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}
	notify(progress, StageUpserted)

	return len(vectors), nil
}

// parsePages 按扩展名选择解析器并提取分页文本
func (p *Pipeline) parsePages(ctx context.Context, filePath string) ([]page, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	switch ext {
	case ".pdf":
		return parsePDF(ctx, file)
	case ".docx":
		return parseDocx(ctx, file)
	case ".txt", ".md":
		return parsePlainText(file)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", ext)
	}
}

// parsePDF PDF 按页解析
func parsePDF(ctx context.Context, reader io.Reader) ([]page, error) {
	parser, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}

	docs, err := parser.Parse(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("pdf parser failed: %w", err)
	}

	return docsToPages(docs), nil
}

// parseDocx docx 解析为单页
func parseDocx(ctx context.Context, reader io.Reader) ([]page, error) {
	parser, err := docx.NewDocxParser(ctx, &docx.Config{
		ToSections:      false,
		IncludeComments: false,
		IncludeHeaders:  true,
		IncludeFooters:  false,
		IncludeTables:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create docx parser: %w", err)
	}

	docs, err := parser.Parse(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("docx parser failed: %w", err)
	}

	return docsToPages(docs), nil
}

// parsePlainText 纯文本整体视为第一页
func parsePlainText(reader io.Reader) ([]page, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	text := string(content)
	if text == "" {
		return nil, nil
	}

	return []page{{number: 1, content: text}}, nil
}

// docsToPages 将解析结果转换为顺序页
func docsToPages(docs []*schema.Document) []page {
	pages := make([]page, 0, len(docs))
	for i, d := range docs {
		if d.Content == "" {
			continue
		}
		pages = append(pages, page{number: i + 1, content: d.Content})
	}
	return pages
}
