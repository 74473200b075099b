package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const sessionKeyPrefix = "session:"

// Store 会话快照存储
// 会话是进程内的临时状态，通过 Redis 快照跨请求/跨进程存活
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore 创建会话存储
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Save 保存会话快照
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}

	data, err := sess.Marshal()
	if err != nil {
		return err
	}

	key := sessionKeyPrefix + sess.ID
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load 加载会话快照，不存在时返回 nil
func (s *Store) Load(ctx context.Context, sessionID string) (*Session, error) {
	key := sessionKeyPrefix + sessionID
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return Unmarshal(data)
}

// Delete 删除会话快照
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := sessionKeyPrefix + sessionID
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
