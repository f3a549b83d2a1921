package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only while it still holds our token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client      *redis.Client
	productsTTL time.Duration

	mu         sync.Mutex
	lockTokens map[string]string
}

func NewRedisCache(cfg config.RedisConfig, productsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		productsTTL: productsTTL,
		lockTokens:  make(map[string]string),
	}
}

// GetProducts returns nil, nil on a cache miss.
func (c *RedisCache) GetProducts(ctx context.Context, kind domain.ProductKind) ([]domain.Product, error) {
	data, err := c.client.Get(ctx, productsKey(kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *RedisCache) SetProducts(ctx context.Context, kind domain.ProductKind, products []domain.Product) error {
	payload, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productsKey(kind), payload, c.productsTTL).Err()
}

func (c *RedisCache) InvalidateProducts(ctx context.Context) error {
	return c.client.Del(ctx, allProductKeys()...).Err()
}

// AcquireLock takes a best-effort exclusive lock that expires after ttl.
func (c *RedisCache) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	c.mu.Lock()
	c.lockTokens[name] = token
	c.mu.Unlock()
	return true, nil
}

// ReleaseLock is a no-op when the lock expired and was taken by someone else.
func (c *RedisCache) ReleaseLock(ctx context.Context, name string) error {
	c.mu.Lock()
	token, ok := c.lockTokens[name]
	delete(c.lockTokens, name)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseLockScript.Run(ctx, c.client, []string{lockKey(name)}, token).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func productsKey(kind domain.ProductKind) string {
	if kind == "" {
		return "cache:products:all"
	}
	return fmt.Sprintf("cache:products:%s", kind)
}

func allProductKeys() []string {
	keys := []string{productsKey("")}
	for _, k := range domain.ProductKinds {
		keys = append(keys, productsKey(k))
	}
	return keys
}

func lockKey(name string) string {
	return fmt.Sprintf("lock:%s", name)
}
