package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

// StoredResponse 幂等键对应的请求状态
// Completed为false表示第一个请求仍在处理
type StoredResponse struct {
	Fingerprint string `json:"fingerprint"`
	Completed   bool   `json:"completed"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// IdempotencyStore 基于Redis的幂等键存储
//
//	key = <prefix>idem:<scope>
//
// 第一次请求用SETNX占位(lockTTL)，处理完成后写入响应(ttl)；
// 处理失败时删除占位，客户端可以用同一个键重试。
type IdempotencyStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// NewIdempotencyStore 创建幂等键存储
func NewIdempotencyStore(client *redis.Client, prefix string, ttl, lockTTL time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &IdempotencyStore{client: client, prefix: prefix, ttl: ttl, lockTTL: lockTTL}
}

func (s *IdempotencyStore) key(scope string) string {
	return s.prefix + "idem:" + scope
}

// Acquire 尝试占用幂等键
// 返回(nil, true)表示占用成功，调用方负责Complete或Release；
// 返回(已有状态, false)表示键已被使用
func (s *IdempotencyStore) Acquire(ctx context.Context, scope, fingerprint string) (*StoredResponse, bool, error) {
	placeholder, err := json.Marshal(StoredResponse{Fingerprint: fingerprint})
	if err != nil {
		return nil, false, err
	}

	k := s.key(scope)
	ok, err := s.client.SetNX(ctx, k, placeholder, s.lockTTL).Result()
	if err != nil {
		return nil, false, apperrors.Unavailable(err, "幂等键存储不可用")
	}
	if ok {
		return nil, true, nil
	}

	val, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// 占位恰好过期，按处理中对待，客户端稍后重试
		return &StoredResponse{Fingerprint: fingerprint}, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Unavailable(err, "幂等键存储不可用")
	}

	var existing StoredResponse
	if err := json.Unmarshal(val, &existing); err != nil {
		return nil, false, fmt.Errorf("幂等键内容损坏: %w", err)
	}
	return &existing, false, nil
}

// Complete 保存响应，之后同一个键直接重放
func (s *IdempotencyStore) Complete(ctx context.Context, scope string, resp StoredResponse) error {
	resp.Completed = true
	val, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(scope), val, s.ttl).Err(); err != nil {
		return apperrors.Unavailable(err, "保存幂等响应失败")
	}
	return nil
}

// Release 删除占位
func (s *IdempotencyStore) Release(ctx context.Context, scope string) error {
	if err := s.client.Del(ctx, s.key(scope)).Err(); err != nil {
		return apperrors.Unavailable(err, "释放幂等键失败")
	}
	return nil
}
