package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"attend-ease/backend/internal/dto"
	"attend-ease/backend/pkg/redis"
)

const timetableCacheKey = "attend:timetable:document"

// timetableCache 课表文档的 Redis 缓存
// rdb 为 nil 时所有操作均为空操作，调用方直接查库
type timetableCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func newTimetableCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *timetableCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &timetableCache{rdb: rdb, ttl: ttl, logger: logger}
}

// get 命中时返回 true；缓存异常只记录日志，不影响主流程
func (c *timetableCache) get(ctx context.Context) (*dto.TimetableDocument, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	var doc dto.TimetableDocument
	if err := c.rdb.GetJSON(ctx, timetableCacheKey, &doc); err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			c.logger.Warn("读取课表缓存失败", zap.Error(err))
		}
		return nil, false
	}
	return &doc, true
}

func (c *timetableCache) set(ctx context.Context, doc *dto.TimetableDocument) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.SetJSON(ctx, timetableCacheKey, doc, c.ttl); err != nil {
		c.logger.Warn("写入课表缓存失败", zap.Error(err))
	}
}

func (c *timetableCache) invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Delete(ctx, timetableCacheKey); err != nil {
		c.logger.Warn("清除课表缓存失败", zap.Error(err))
	}
}
