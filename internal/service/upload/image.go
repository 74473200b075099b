package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/service/vector"
)

// 图片理解提示词
const imageInsightPrompt = "Provide very detailed insights about these images."

// processImage 处理图片文件
// 视觉模型生成描述，描述作为单个向量写入命名空间
func (p *Pipeline) processImage(ctx context.Context, filePath, originalName, namespaceID string, progress ProgressFunc) (int, error) {
	part, err := imagePart(filePath)
	if err != nil {
		return 0, err
	}

	description, err := p.describeImages(ctx, imageInsightPrompt, []schema.ChatMessagePart{*part})
	if err != nil {
		return 0, fmt.Errorf("failed to analyze image: %w", err)
	}
	if description == "" {
		return 0, fmt.Errorf("vision model returned empty description")
	}
	notify(progress, StageExtracted)

	embeddings, err := p.embedder.EmbedStrings(ctx, []string{description})
	if err != nil {
		return 0, fmt.Errorf("failed to embed description: %w", err)
	}
	if len(embeddings) == 0 {
		return 0, fmt.Errorf("embedder returned no vectors")
	}
	notify(progress, StageEmbedded)

	v := vector.Vector{
		ID:     uuid.New().String(),
		Values: embeddings[0],
		Payload: vector.Payload{
			Filename: originalName,
			Kind:     vector.KindImage,
			Content:  description,
		},
	}

	if err := p.store.Upsert(ctx, namespaceID, []vector.Vector{v}); err != nil {
		return 0, fmt.Errorf("failed to upsert vector: %w", err)
	}
	notify(progress, StageUpserted)

	return 1, nil
}

// describeImages 向视觉模型发送文本指令和若干图片
func (p *Pipeline) describeImages(ctx context.Context, instruction string, images []schema.ChatMessagePart) (string, error) {
	parts := make([]schema.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, schema.ChatMessagePart{
		Type: schema.ChatMessagePartTypeText,
		Text: instruction,
	})
	parts = append(parts, images...)

	messages := []*schema.Message{
		{
			Role:         schema.User,
			MultiContent: parts,
		},
	}

	resp, err := p.visionModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	return resp.Content, nil
}

// imagePart 将图片文件编码为内联 data URL 消息段
func imagePart(filePath string) (*schema.ChatMessagePart, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := imageMIMEType(filePath)
	encoded := base64.StdEncoding.EncodeToString(data)
	url := fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)

	return &schema.ChatMessagePart{
		Type: schema.ChatMessagePartTypeImageURL,
		ImageURL: &schema.ChatMessageImageURL{
			URL: url,
		},
	}, nil
}

// imageMIMEType 按扩展名推断 MIME 类型
func imageMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
