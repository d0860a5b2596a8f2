package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campus-hub/backend/config"
)

// Client Redis 客户端封装
// 用于未读通知计数缓存与写接口限流；连接失败时调用方降级运行
type Client struct {
	rdb       *goredis.Client
	unreadTTL time.Duration
	logger    *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return New(rdb, cfg.UnreadCacheTTL, logger), nil
}

// New 用已有连接构造 Client
func New(rdb *goredis.Client, unreadTTL time.Duration, logger *zap.Logger) *Client {
	if unreadTTL <= 0 {
		unreadTTL = 5 * time.Minute
	}
	return &Client{rdb: rdb, unreadTTL: unreadTTL, logger: logger}
}

// ── 未读计数缓存 ──

const unreadPrefix = "notification:unread:"

// GetUnreadCount 读取缓存的未读数，未命中时 ok=false
func (c *Client) GetUnreadCount(ctx context.Context, userID string) (int64, bool, error) {
	n, err := c.rdb.Get(ctx, unreadPrefix+userID).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// SetUnreadCount 写入未读数缓存
func (c *Client) SetUnreadCount(ctx context.Context, userID string, count int64) error {
	return c.rdb.Set(ctx, unreadPrefix+userID, count, c.unreadTTL).Err()
}

// InvalidateUnreadCount 使未读数缓存失效（通知创建或状态变化后调用）
func (c *Client) InvalidateUnreadCount(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, unreadPrefix+userID).Err()
}

// ── 限流 ──

// CheckRateLimit 固定窗口计数限流，返回本次请求是否放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
