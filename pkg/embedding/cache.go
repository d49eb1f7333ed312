package embedding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lontok/kala-rag/pkg/fingerprint"
)

// CacheConfig Embedding 缓存配置。
type CacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// DefaultCacheConfig 返回默认的缓存配置。
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:   true,
		TTL:       24 * time.Hour, // Embedding 结果相对稳定，可以缓存更长时间
		KeyPrefix: "emb:",
	}
}

// CachedProvider 提供 Embedding 缓存功能的包装器。
// 缓存键为文本内容的 SHA-256 指纹，与文档去重口径一致。
type CachedProvider struct {
	provider Provider
	redis    *goredis.Client
	config   *CacheConfig
}

// NewCachedProvider 创建带缓存的供应商。
func NewCachedProvider(provider Provider, redis *goredis.Client, config *CacheConfig) *CachedProvider {
	if config == nil {
		config = DefaultCacheConfig()
	}
	return &CachedProvider{
		provider: provider,
		redis:    redis,
		config:   config,
	}
}

func (c *CachedProvider) cacheKey(text string) string {
	return c.config.KeyPrefix + fingerprint.Sum([]byte(text))
}

// EmbedSingle 生成单个文本的向量（带缓存）。
func (c *CachedProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if !c.config.Enabled || c.redis == nil {
		return c.provider.EmbedSingle(ctx, text)
	}

	key := c.cacheKey(text)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var vec []float32
		if err := json.Unmarshal(data, &vec); err == nil {
			logger.Debugw("embedding cache hit", "text_length", len(text), "key", key)
			return vec, nil
		}
		// 反序列化失败，删除损坏的缓存
		logger.Warnw("failed to unmarshal cached embedding, deleting", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
	} else if err != goredis.Nil {
		logger.Warnw("redis get error, falling back to provider", "error", err.Error())
	}

	vec, err := c.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, vec)
	return vec, nil
}

// Embed 批量生成向量（带缓存），未命中的文本合并为一次下游调用。
func (c *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.config.Enabled || c.redis == nil {
		return c.provider.Embed(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	var missIndices []int
	var missTexts []string

	for i, text := range texts {
		key := c.cacheKey(text)
		data, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var vec []float32
			if err := json.Unmarshal(data, &vec); err == nil {
				vectors[i] = vec
				continue
			}
			_ = c.redis.Del(ctx, key).Err()
		}
		missIndices = append(missIndices, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) > 0 {
		logger.Debugw("embedding cache miss (batch)", "total", len(texts), "uncached", len(missTexts))
		embedded, err := c.provider.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for i, idx := range missIndices {
			vectors[idx] = embedded[i]
			c.store(ctx, c.cacheKey(missTexts[i]), embedded[i])
		}
	}

	return vectors, nil
}

func (c *CachedProvider) store(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		logger.Warnw("failed to marshal embedding for caching", "error", err.Error())
		return
	}
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to cache embedding", "error", err.Error(), "key", key)
	}
}

// Name 返回底层供应商名称。
func (c *CachedProvider) Name() string {
	return c.provider.Name() + "-cached"
}

// ClearCache 清除所有 Embedding 缓存。
func (c *CachedProvider) ClearCache(ctx context.Context) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	logger.Infow("cleared embedding cache", "deleted_count", deleted)
	return nil
}

var _ Provider = (*CachedProvider)(nil)
