package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Vector   VectorConfig
	AI       AIConfig
	Media    MediaConfig
	Upload   UploadConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// 会话快照的过期时间（秒）
	SessionTTL int
}

// AuthConfig 认证配置
// 令牌由外部身份服务签发，这里只做校验
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// VectorConfig 向量库配置 (Qdrant)
type VectorConfig struct {
	Host      string
	Port      int
	APIKey    string
	UseTLS    bool
	Dimension uint64
}

// AIConfig AI 配置
type AIConfig struct {
	Provider  string
	OpenAI    OpenAIConfig
	DeepSeek  DeepSeekConfig
	Vision    VisionConfig
	Embedding EmbeddingConfig
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// DeepSeekConfig DeepSeek 配置
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// VisionConfig 视觉模型配置（图片/视频帧描述）
type VisionConfig struct {
	Model string
}

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    int
	Dimensions int
}

// MediaConfig 媒体文件存储配置
type MediaConfig struct {
	Type  string // local, minio
	Local LocalMediaConfig
	MinIO MinIOMediaConfig
}

// LocalMediaConfig 本地存储配置
type LocalMediaConfig struct {
	BasePath  string
	URLPrefix string
}

// MinIOMediaConfig MinIO 存储配置
type MinIOMediaConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLPrefix string
}

// UploadConfig 上传处理配置
type UploadConfig struct {
	TempDir      string
	MaxFileSize  int64 // 单文件大小上限（字节）
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	FrameRate    int
	FFmpegPath   string
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "insight")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 60)
	v.SetDefault("server.writeTimeout", 60)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "insight")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.sessionTTL", 86400)

	// Vector
	v.SetDefault("vector.host", "localhost")
	v.SetDefault("vector.port", 6334)
	v.SetDefault("vector.useTLS", false)
	v.SetDefault("vector.dimension", 1024)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.vision.model", "gpt-4o-mini")
	v.SetDefault("ai.embedding.model", "text-embedding-v3")

	// Media
	v.SetDefault("media.type", "local")
	v.SetDefault("media.local.basePath", "./data/media")
	v.SetDefault("media.local.urlPrefix", "/media")

	// Upload
	v.SetDefault("upload.tempDir", "./data/uploads")
	v.SetDefault("upload.maxFileSize", 50*1024*1024)
	v.SetDefault("upload.chunkSize", 1024)
	v.SetDefault("upload.chunkOverlap", 100)
	v.SetDefault("upload.topK", 5)
	v.SetDefault("upload.frameRate", 1)
	v.SetDefault("upload.ffmpegPath", "ffmpeg")
}
