package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/logger"
)

// ProfileLoader 批量读取资料的底层来源（通常是 UserRepository）
type ProfileLoader interface {
	LoadProfiles(ctx context.Context, refs []model.UserRef) (map[model.UserRef]model.Profile, error)
}

// ProfileCache 在 ProfileLoader 前面加一层 redis：整页 MGET，未命中的一次性批量回源。
// 回填写入交给 writer 异步执行，读路径不等待 redis 写。
type ProfileCache struct {
	next   ProfileLoader
	rdb    redis.UniversalClient
	ttl    time.Duration
	writer *ProfileWriter

	hits      atomic.Int64
	misses    atomic.Int64
	bulkLoads atomic.Int64
}

// NewProfileCache wraps next. A nil writer means cache fills happen inline.
func NewProfileCache(next ProfileLoader, rdb redis.UniversalClient, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProfileCache{next: next, rdb: rdb, ttl: ttl}
}

// WithAsyncFill routes cache fills through a background writer. Start the
// writer before serving traffic.
func (c *ProfileCache) WithAsyncFill(queueSize int) *ProfileCache {
	c.writer = newProfileWriter(c.rdb, c.ttl, queueSize)
	return c
}

// Writer exposes the async fill worker, nil when fills are inline.
func (c *ProfileCache) Writer() *ProfileWriter { return c.writer }

func profileKey(ref model.UserRef) string {
	return fmt.Sprintf("profile:%s:%s", ref.Type, ref.ID)
}

func (c *ProfileCache) LoadProfiles(ctx context.Context, refs []model.UserRef) (map[model.UserRef]model.Profile, error) {
	out := make(map[model.UserRef]model.Profile, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = profileKey(ref)
	}

	// redis 故障时整页回源，不让缓存拖垮读请求
	if vals, err := c.rdb.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var p model.Profile
			if uErr := json.Unmarshal([]byte(str), &p); uErr == nil {
				out[refs[i]] = p
			}
		}
	} else {
		logger.Ctx(ctx).Warn("profile cache mget failed", zap.Error(err))
	}

	missing := make([]model.UserRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := out[ref]; !ok {
			missing = append(missing, ref)
		}
	}
	c.hits.Add(int64(len(refs) - len(missing)))
	c.misses.Add(int64(len(missing)))
	if len(missing) == 0 {
		return out, nil
	}

	c.bulkLoads.Add(1)
	loaded, err := c.next.LoadProfiles(ctx, missing)
	if err != nil {
		return nil, err
	}
	for ref, p := range loaded {
		out[ref] = p
	}
	c.fill(ctx, loaded)
	return out, nil
}

func (c *ProfileCache) fill(ctx context.Context, loaded map[model.UserRef]model.Profile) {
	if len(loaded) == 0 {
		return
	}
	if c.writer != nil {
		for _, p := range loaded {
			c.writer.Enqueue(p)
		}
		return
	}
	pipe := c.rdb.Pipeline()
	for ref, p := range loaded {
		payload, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, profileKey(ref), payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Ctx(ctx).Warn("profile cache fill failed", zap.Error(err))
	}
}

// Invalidate drops cached entries, e.g. after a rename or avatar change.
func (c *ProfileCache) Invalidate(ctx context.Context, refs ...model.UserRef) error {
	if len(refs) == 0 {
		return nil
	}
	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = profileKey(ref)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Counters reports cache hits/misses and how many batches went to the loader.
func (c *ProfileCache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load(), BulkLoads: c.bulkLoads.Load()}
}

// ResetCounters clears recorded counters.
func (c *ProfileCache) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.bulkLoads.Store(0)
}

// Counters summarises cache activity.
type Counters struct {
	Hits      int64
	Misses    int64
	BulkLoads int64
}
