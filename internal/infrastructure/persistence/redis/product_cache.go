package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/domain/product"
	"github.com/xiebiao/stockledger/pkg/metrics"
)

const productCacheName = "product"

// productEntry 缓存中的商品，价格以字符串保存避免精度损失
type productEntry struct {
	ID       uint   `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	IsActive bool   `json:"is_active"`
}

func newProductEntry(p *product.Product) productEntry {
	return productEntry{ID: p.ID, SKU: p.SKU, Name: p.Name, Price: p.Price.String(), IsActive: p.IsActive}
}

func (e productEntry) toProduct() (*product.Product, error) {
	price, err := decimal.NewFromString(e.Price)
	if err != nil {
		return nil, fmt.Errorf("缓存价格格式错误: %w", err)
	}
	return &product.Product{ID: e.ID, SKU: e.SKU, Name: e.Name, Price: price, IsActive: e.IsActive}, nil
}

// CachedCatalog 商品目录的旁路缓存
//
// 先查Redis，未命中再查底层目录并回填。Redis故障时直接读底层目录，
// 只记日志不返回错误。商品不存在的结果不缓存。
type CachedCatalog struct {
	next   product.Catalog
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCatalog 包装商品目录
func NewCachedCatalog(next product.Catalog, client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCatalog{next: next, client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *CachedCatalog) key(id uint) string {
	return fmt.Sprintf("%sproduct:%d", c.prefix, id)
}

// GetProduct 读取商品
func (c *CachedCatalog) GetProduct(ctx context.Context, id uint) (*product.Product, error) {
	val, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		if p, decodeErr := decodeProduct(val); decodeErr == nil {
			c.count("hit")
			return p, nil
		}
		c.count("error")
	case errors.Is(err, redis.Nil):
		c.count("miss")
	default:
		c.count("error")
		c.logger.Warn("读取商品缓存失败", zap.Uint("product_id", id), zap.Error(err))
	}

	p, err := c.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, p)
	return p, nil
}

// GetPrices 批量读取单价，未命中的部分一次性查底层目录
func (c *CachedCatalog) GetPrices(ctx context.Context, ids []uint) (map[uint]decimal.Decimal, error) {
	prices := make(map[uint]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}

	missing := ids
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.count("error")
		c.logger.Warn("批量读取商品缓存失败", zap.Int("count", len(ids)), zap.Error(err))
	} else {
		missing = missing[:0:0]
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			p, decodeErr := decodeProduct([]byte(s))
			if decodeErr != nil {
				missing = append(missing, ids[i])
				continue
			}
			prices[ids[i]] = p.Price
		}
		c.logger.Debug("商品缓存批量命中", zap.Int("hit", len(prices)), zap.Int("miss", len(missing)))
	}

	if len(missing) == 0 {
		return prices, nil
	}
	rest, err := c.next.GetPrices(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, price := range rest {
		prices[id] = price
	}
	return prices, nil
}

// Invalidate 商品信息变化后删除缓存
func (c *CachedCatalog) Invalidate(ctx context.Context, id uint) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("删除商品缓存失败: %w", err)
	}
	return nil
}

func (c *CachedCatalog) store(ctx context.Context, p *product.Product) {
	val, err := json.Marshal(newProductEntry(p))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(p.ID), val, c.ttl).Err(); err != nil {
		c.logger.Warn("写入商品缓存失败", zap.Uint("product_id", p.ID), zap.Error(err))
	}
}

func (c *CachedCatalog) count(result string) {
	metrics.IncCounterVec(metrics.CacheRequestsTotal, map[string]string{"cache": productCacheName, "result": result})
}

func decodeProduct(val []byte) (*product.Product, error) {
	var e productEntry
	if err := json.Unmarshal(val, &e); err != nil {
		return nil, fmt.Errorf("反序列化商品缓存失败: %w", err)
	}
	return e.toProduct()
}
