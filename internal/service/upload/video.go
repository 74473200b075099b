package upload

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/insight-ai/insight/internal/service/vector"
)

// 视频帧理解提示词
const videoInsightPrompt = "Analyze these video frames sampled in order and describe in detail what happens in the video."

// 单次视觉调用的帧数上限，超过则丢弃多余帧
const maxFramesPerCall = 20

// processVideo 处理视频文件
// ffmpeg 按固定帧率抽帧，全部帧在一次视觉调用中生成描述，
// 描述超长时按固定窗口分块，逐块嵌入写库
func (p *Pipeline) processVideo(ctx context.Context, filePath, originalName, namespaceID string, progress ProgressFunc) (int, error) {
	frameDir, err := os.MkdirTemp(p.tempDir, "frames-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create frame directory: %w", err)
	}
	defer os.RemoveAll(frameDir)

	frames, err := p.extractFrames(ctx, filePath, frameDir)
	if err != nil {
		return 0, fmt.Errorf("failed to extract frames: %w", err)
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("no frames extracted from video")
	}
	if len(frames) > maxFramesPerCall {
		frames = frames[:maxFramesPerCall]
	}

	parts := make([]schema.ChatMessagePart, 0, len(frames))
	for _, frame := range frames {
		part, err := imagePart(frame)
		if err != nil {
			return 0, err
		}
		parts = append(parts, *part)
	}

	description, err := p.describeImages(ctx, videoInsightPrompt, parts)
	if err != nil {
		return 0, fmt.Errorf("failed to analyze video frames: %w", err)
	}
	if description == "" {
		return 0, fmt.Errorf("vision model returned empty description")
	}
	notify(progress, StageExtracted)

	chunks := p.chunker.Split(description)
	embeddings, err := p.embedder.EmbedStrings(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed description: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	notify(progress, StageEmbedded)

	vectors := make([]vector.Vector, 0, len(chunks))
	for i, chunk := range chunks {
		vectors = append(vectors, vector.Vector{
			ID:     uuid.New().String(),
			Values: embeddings[i],
			Payload: vector.Payload{
				Filename: originalName,
				Chunk:    i + 1,
				Kind:     vector.KindVideo,
				Content:  chunk,
			},
		})
	}

	if err := p.store.Upsert(ctx, namespaceID, vectors); err != nil {
		return 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}
	notify(progress, StageUpserted)

	return len(vectors), nil
}

// extractFrames 调用 ffmpeg 按 frameRate 抽帧到目录
func (p *Pipeline) extractFrames(ctx context.Context, videoPath, frameDir string) ([]string, error) {
	pattern := filepath.Join(frameDir, "frame-%04d.png")
	fpsArg := fmt.Sprintf("fps=%d", p.frameRate)

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-i", videoPath,
		"-vf", fpsArg,
		"-y",
		pattern,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, string(out))
	}

	entries, err := os.ReadDir(frameDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}

	frames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		frames = append(frames, filepath.Join(frameDir, entry.Name()))
	}
	sort.Strings(frames)

	return frames, nil
}
