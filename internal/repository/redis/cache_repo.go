package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iheb-heni/product-management/internal/cfg"
	"github.com/iheb-heni/product-management/internal/repository/redis/converter"
	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/iheb-heni/product-management/pkg/clients"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/iheb-heni/product-management/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует выходные проекции товара с TTL.
// Ошибки кэша логируются и не влияют на обработку запроса:
// промах и недоступный Redis для вызывающей стороны неразличимы.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает закэшированный товар или (nil, nil) при промахе.
func (c *CacheRepo) GetProduct(ctx context.Context, id int64) (*usecase.ProductRes, error) {
	data, err := c.client.Client.Get(ctx, c.productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}
		c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, nil
	}

	if model.ID != id {
		c.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", id, model.ID)
		if err := c.client.Client.Del(context.Background(), c.productKey(id)).Err(); err != nil {
			c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil
	}

	res, err := converter.ToUseCase(&model)
	if err != nil {
		c.logger.Warnf("Cache price parse failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, nil
	}

	return res, nil
}

// SetProduct кэширует товар с TTL из конфигурации.
func (c *CacheRepo) SetProduct(ctx context.Context, product *usecase.ProductRes) error {
	data, err := json.Marshal(converter.ToRedisModel(product))
	if err != nil {
		c.logger.Warnf("Failed to marshal product for caching (Product ID: %d): %v",
			product.ID, e.Wrap(whereami.WhereAmI(), err))
		return nil
	}

	if err := c.client.Client.Set(ctx, c.productKey(product.ID), data, c.cfg.ProductTTL).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// DeleteProduct удаляет товар из кэша по ID
func (c *CacheRepo) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.client.Client.Del(ctx, c.productKey(id)).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// productKey возвращает Redis-ключ для одного товара
func (c *CacheRepo) productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
