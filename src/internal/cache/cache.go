package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// Cache defines the caching operations used by the services
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Close() error
}

// Manager fronts a Redis cache with an in-memory fallback. Cache
// failures are never surfaced to callers; a miss just means a
// database read.
type Manager struct {
	primary   Cache
	fallback  Cache
	enabled   bool
	keyPrefix string
}

// NewManager creates a new cache manager
func NewManager(cfg *viper.Viper) *Manager {
	m := &Manager{
		enabled:   cfg.GetBool("cache.enabled"),
		keyPrefix: cfg.GetString("cache.key_prefix"),
	}
	if m.keyPrefix == "" {
		m.keyPrefix = "cookbookd:"
	}

	if m.enabled && cfg.GetBool("redis.enabled") {
		if rc, err := NewRedisCache(cfg); err == nil {
			m.primary = rc
		}
	}

	// Always have memory cache as fallback
	m.fallback = NewMemoryCache()

	return m
}

func (m *Manager) key(key string) string {
	return m.keyPrefix + key
}

func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	if !m.enabled {
		return "", fmt.Errorf("cache not enabled")
	}

	fullKey := m.key(key)
	if m.primary != nil {
		if value, err := m.primary.Get(ctx, fullKey); err == nil {
			return value, nil
		}
	}
	return m.fallback.Get(ctx, fullKey)
}

func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !m.enabled {
		return nil
	}

	fullKey := m.key(key)
	if m.primary != nil {
		if err := m.primary.Set(ctx, fullKey, value, ttl); err == nil {
			return nil
		}
	}
	return m.fallback.Set(ctx, fullKey, value, ttl)
}

func (m *Manager) Delete(ctx context.Context, key string) error {
	if !m.enabled {
		return nil
	}

	fullKey := m.key(key)
	if m.primary != nil {
		m.primary.Delete(ctx, fullKey)
	}
	m.fallback.Delete(ctx, fullKey)
	return nil
}

func (m *Manager) DeletePattern(ctx context.Context, pattern string) error {
	if !m.enabled {
		return nil
	}

	fullPattern := m.key(pattern)
	if m.primary != nil {
		m.primary.DeletePattern(ctx, fullPattern)
	}
	m.fallback.DeletePattern(ctx, fullPattern)
	return nil
}

func (m *Manager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	value, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(value), dest)
}

func (m *Manager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, string(data), ttl)
}

func (m *Manager) Close() error {
	if m.primary != nil {
		m.primary.Close()
	}
	if m.fallback != nil {
		m.fallback.Close()
	}
	return nil
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(cfg *viper.Viper) (*RedisCache, error) {
	addr := cfg.GetString("redis.addr")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.GetString("redis.password"),
		DB:           cfg.GetInt("redis.db"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, key).Err()
}

func (rc *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	keys, err := rc.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return rc.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (rc *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := rc.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (rc *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rc.Set(ctx, key, string(data), ttl)
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// MemoryCache implements Cache using in-process storage
type MemoryCache struct {
	data map[string]memoryItem
	mu   sync.RWMutex
}

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]memoryItem)}
}

func (mc *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	mc.mu.RLock()
	item, exists := mc.data[key]
	mc.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("key not found")
	}
	if time.Now().After(item.expiresAt) {
		mc.Delete(ctx, key)
		return "", fmt.Errorf("key expired")
	}
	return item.value, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var strValue string
	switch v := value.(type) {
	case string:
		strValue = v
	case []byte:
		strValue = string(v)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		strValue = string(data)
	}

	mc.mu.Lock()
	mc.data[key] = memoryItem{value: strValue, expiresAt: time.Now().Add(ttl)}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	delete(mc.data, key)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for key := range mc.data {
		if matchPattern(pattern, key) {
			delete(mc.data, key)
		}
	}
	return nil
}

func (mc *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := mc.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (mc *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return mc.Set(ctx, key, string(data), ttl)
}

func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	mc.data = make(map[string]memoryItem)
	mc.mu.Unlock()
	return nil
}

// Prefix wildcards only; that covers all keys the services use.
func matchPattern(pattern, str string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(str, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == str
}

// Cache TTLs
const (
	TTLShort  = 5 * time.Minute
	TTLMedium = 30 * time.Minute
)

// Cache keys. Everything is filed under the owning user so a single
// prefix delete drops all of a user's cached reads after a mutation.

func RecipeKey(userID, recipeID string) string {
	return fmt.Sprintf("user:%s:recipe:%s", userID, recipeID)
}

func UserRecipesKey(userID string) string {
	return fmt.Sprintf("user:%s:recipes", userID)
}

func UserScopePattern(userID string) string {
	return fmt.Sprintf("user:%s:*", userID)
}
