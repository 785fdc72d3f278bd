package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/logger"
)

// ProfileWriter 本地异步回填队列，队列满时直接丢弃（下次读再回源）
type ProfileWriter struct {
	rdb redis.UniversalClient
	ttl time.Duration
	ch  chan model.Profile
}

func newProfileWriter(rdb redis.UniversalClient, ttl time.Duration, queueSize int) *ProfileWriter {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &ProfileWriter{rdb: rdb, ttl: ttl, ch: make(chan model.Profile, queueSize)}
}

// Start 启动若干 worker；返回的停止函数会在 ctx 截止前尽量排空队列，多次调用安全
func (w *ProfileWriter) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case p := <-w.ch:
					w.write(p)
				case <-stopCh:
					return
				}
			}
		}()
	}
	var once sync.Once
	return func(ctx context.Context) error {
		// 可重复调用
		once.Do(func() { close(stopCh) })
		for {
			select {
			case p := <-w.ch:
				w.write(p)
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		}
	}
}

func (w *ProfileWriter) write(p model.Profile) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ref := model.UserRef{ID: p.ID, Type: p.Type}
	if err := w.rdb.Set(ctx, profileKey(ref), payload, w.ttl).Err(); err != nil {
		logger.Warn("profile cache write failed", zap.String("key", profileKey(ref)), zap.Error(err))
	}
}

func (w *ProfileWriter) Enqueue(p model.Profile) {
	select {
	case w.ch <- p:
	default:
		logger.Warn("profile writer queue full, drop", zap.String("id", p.ID))
	}
}

// QueueLen 返回当前队列长度（采样值）
func (w *ProfileWriter) QueueLen() int { return len(w.ch) }
