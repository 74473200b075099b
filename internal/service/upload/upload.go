// Package upload 实现文件上传的分析与索引流水线。
// 文档逐页解析分块，图片和视频经视觉模型生成描述，
// 所有内容统一嵌入后写入对话的向量命名空间。
package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/config"
	"github.com/insight-ai/insight/internal/service/vector"
)

// Stage 处理阶段，用于进度回调
type Stage string

const (
	StageSaved     Stage = "saved"
	StageExtracted Stage = "extracted"
	StageEmbedded  Stage = "embedded"
	StageUpserted  Stage = "upserted"
)

// ProgressFunc 进度回调，可为 nil
type ProgressFunc func(stage Stage)

// notify 安全触发进度回调
func notify(progress ProgressFunc, stage Stage) {
	if progress != nil {
		progress(stage)
	}
}

// 文件类别
const (
	fileKindDocument = "document"
	fileKindImage    = "image"
	fileKindVideo    = "video"
)

// FileInput 待处理文件
type FileInput struct {
	Path         string // 本地临时路径
	OriginalName string // 上传时的原始文件名
}

// FileResult 单文件处理结果
type FileResult struct {
	OriginalName string `json:"original_name"`
	Kind         string `json:"kind,omitempty"`
	Vectors      int    `json:"vectors"`
	Skipped      bool   `json:"skipped,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchResult 批量处理结果
type BatchResult struct {
	NamespaceID string       `json:"namespace_id"`
	Files       []FileResult `json:"files"`
}

// Pipeline 上传处理流水线
type Pipeline struct {
	embedder    embedding.Embedder
	visionModel model.ChatModel
	store       vector.Store
	chunker     *Chunker
	tempDir     string
	frameRate   int
	ffmpegPath  string
}

// NewPipeline 创建流水线
func NewPipeline(embedder embedding.Embedder, visionModel model.ChatModel, store vector.Store, cfg *config.UploadConfig) *Pipeline {
	frameRate := cfg.FrameRate
	if frameRate <= 0 {
		frameRate = 1
	}
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	return &Pipeline{
		embedder:    embedder,
		visionModel: visionModel,
		store:       store,
		chunker:     NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		tempDir:     cfg.TempDir,
		frameRate:   frameRate,
		ffmpegPath:  ffmpegPath,
	}
}

// Process 批量处理上传文件
// 每个文件独立并发处理，互不影响；单文件失败只记入该文件的结果。
// namespaceID 为空时生成新的命名空间并随结果返回。
func (p *Pipeline) Process(ctx context.Context, files []FileInput, namespaceID string, progress ProgressFunc) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to process")
	}

	if namespaceID == "" {
		namespaceID = uuid.New().String()
	}

	results := make([]FileResult, len(files))
	var wg sync.WaitGroup

	for i, file := range files {
		wg.Add(1)
		go func(idx int, f FileInput) {
			defer wg.Done()
			results[idx] = p.processFile(ctx, f, namespaceID, progress)
		}(i, file)
	}

	wg.Wait()

	return &BatchResult{
		NamespaceID: namespaceID,
		Files:       results,
	}, nil
}

// processFile 按类别分派处理单个文件
func (p *Pipeline) processFile(ctx context.Context, file FileInput, namespaceID string, progress ProgressFunc) FileResult {
	result := FileResult{OriginalName: file.OriginalName}

	kind := classifyFile(file.OriginalName)
	if kind == "" {
		result.Skipped = true
		result.Error = fmt.Sprintf("unsupported file type: %s", filepath.Ext(file.OriginalName))
		return result
	}
	result.Kind = kind

	var count int
	var err error
	switch kind {
	case fileKindDocument:
		count, err = p.processDocument(ctx, file.Path, file.OriginalName, namespaceID, progress)
	case fileKindImage:
		count, err = p.processImage(ctx, file.Path, file.OriginalName, namespaceID, progress)
	case fileKindVideo:
		count, err = p.processVideo(ctx, file.Path, file.OriginalName, namespaceID, progress)
	}

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Vectors = count
	return result
}

// classifyFile 按扩展名识别文件类别，不支持的类型返回空串
func classifyFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".txt", ".md":
		return fileKindDocument
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return fileKindImage
	case ".mp4", ".mov", ".webm", ".avi":
		return fileKindVideo
	default:
		return ""
	}
}
