// Package service 组合所有业务服务。
// 参考 eino-examples，使用简单的 newXxx() 函数直接初始化 eino 组件。
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"

	"github.com/insight-ai/insight/internal/config"
	"github.com/insight-ai/insight/internal/repository"
	"github.com/insight-ai/insight/internal/service/media"
	"github.com/insight-ai/insight/internal/service/responder"
	"github.com/insight-ai/insight/internal/service/session"
	"github.com/insight-ai/insight/internal/service/upload"
	"github.com/insight-ai/insight/internal/service/vector"
)

// Services 服务集合
type Services struct {
	// 业务服务
	Reconciler *session.Reconciler
	Sessions   *session.Store
	Responder  *responder.Responder
	Upload     *upload.Pipeline
	Media      *media.Service

	// 配置
	Config *config.Config

	// Eino 组件（直接使用 eino 类型，无封装）
	Embedder    embedding.Embedder
	ChatModel   model.ChatModel
	VisionModel model.ChatModel

	// 向量库
	VectorStore vector.Store
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	visionModel, err := newVisionModel(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to create vision model, falling back to chat model: %v", err)
		visionModel = chatModel
	}

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	vectorStore, err := vector.NewQdrantStore(&cfg.Vector)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	mediaService, err := media.NewServiceFromConfig(repo.Media, &cfg.Media)
	if err != nil {
		return nil, fmt.Errorf("failed to create media service: %w", err)
	}

	ttl := time.Duration(cfg.Redis.SessionTTL) * time.Second

	return &Services{
		Reconciler: session.NewReconciler(repo.Chat),
		Sessions:   session.NewStore(redisClient, ttl),
		Responder:  responder.NewResponder(embedder, chatModel, vectorStore, cfg.Upload.TopK),
		Upload:     upload.NewPipeline(embedder, visionModel, vectorStore, &cfg.Upload),
		Media:      mediaService,

		Config: cfg,

		Embedder:    embedder,
		ChatModel:   chatModel,
		VisionModel: visionModel,
		VectorStore: vectorStore,
	}, nil
}

// newChatModel 创建 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (model.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai", "":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}

// newVisionModel 创建视觉模型
// 图片/视频描述走 OpenAI 兼容接口的多模态模型
func newVisionModel(ctx context.Context, cfg *config.Config) (model.ChatModel, error) {
	apiKey := cfg.AI.OpenAI.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf("openai api_key is required for vision model")
	}

	modelName := cfg.AI.Vision.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: cfg.AI.OpenAI.BaseURL,
		Model:   modelName,
	})
}

// newEmbedder 创建 Embedding 器
func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	embCfg := cfg.AI.Embedding

	if embCfg.APIKey == "" {
		return nil, fmt.Errorf("embedding api_key is required")
	}

	modelName := embCfg.Model
	if modelName == "" {
		modelName = "text-embedding-v3"
	}

	embConfig := &dashscope.EmbeddingConfig{
		APIKey: embCfg.APIKey,
		Model:  modelName,
	}

	if embCfg.Timeout > 0 {
		embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
	}

	if embCfg.Dimensions > 0 {
		dims := embCfg.Dimensions
		embConfig.Dimensions = &dims
	}

	return dashscope.NewEmbedder(ctx, embConfig)
}
