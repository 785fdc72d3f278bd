package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/castgraph/config"
	"github.com/d60-Lab/castgraph/internal/cache"
	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
	"github.com/d60-Lab/castgraph/internal/service"
	"github.com/d60-Lab/castgraph/pkg/database"
)

// 3 个 cast，各 10k 粉丝，相邻 cast 的粉丝有 50% 重叠
const (
	guestCount = 20000
	castCount  = 3
	ttl        = 10 * time.Minute
)

type request struct {
	castID string
	pages  int // 从第一页起连续翻几页
	size   int
}

func main() {
	ctx := context.Background()

	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	mustDo(db.AutoMigrate(model.AllModels()...))

	fmt.Println("Setting up test data...")
	casts := make([]model.Cast, castCount)
	for i := range casts {
		casts[i] = model.Cast{ID: uuid.NewString(), Name: fmt.Sprintf("cast_%d", i), Visibility: model.VisibilityPublic}
	}
	mustDo(db.Create(&casts).Error)

	guests := make([]model.Guest, guestCount)
	for i := range guests {
		guests[i] = model.Guest{ID: uuid.NewString(), Name: fmt.Sprintf("guest_%d", i), AvatarURL: fmt.Sprintf("https://img.example.com/%d.png", i)}
	}
	mustDo(db.CreateInBatches(&guests, 1000).Error)

	base := time.Now().UTC()
	for c, cast := range casts {
		rows := make([]model.Follow, guestCount/2)
		for i := range rows {
			rows[i] = model.Follow{
				ID:        uuid.NewString(),
				CastID:    cast.ID,
				GuestID:   guests[(i+c*guestCount/4)%guestCount].ID,
				Status:    model.FollowApproved,
				CreatedAt: base.Add(-time.Duration(i) * time.Second),
			}
		}
		mustDo(db.CreateInBatches(&rows, 1000).Error)
	}
	fmt.Println("Test data ready")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = cfg.Redis.Addr
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
	}

	users := repository.NewUserRepository(db)
	store := repository.NewRelationshipStore(db)
	posts := repository.NewPostRepository(db)
	policy := service.NewVisibilityPolicy(store)
	profiles := cache.NewProfileCache(users, client, ttl)

	direct := service.NewFeedService(store, users, posts, users, policy, service.DefaultPaging)
	cached := service.NewFeedService(store, users, posts, profiles, policy, service.DefaultPaging)

	reqs := makeRequests(casts, 3000)

	noCache := runScenario(ctx, client, nil, reqs, false, direct)
	cold := runScenario(ctx, client, profiles, reqs, false, cached)
	warm := runScenario(ctx, client, profiles, reqs, true, cached)

	fmt.Printf("\nFollower list latency (%d req across %d casts, %d guests)\n", len(reqs), castCount, guestCount)
	for _, r := range []struct {
		name string
		res  scenarioResult
	}{{"No cache", noCache}, {"Cold profile cache", cold}, {"Warm profile cache", warm}} {
		fmt.Printf("%-20s avg=%v p95=%v p99=%v hits=%d misses=%d bulk_loads=%d cache_keys=%d mem=%s\n",
			r.name, avg(r.res.durations), pct(r.res.durations, 0.95), pct(r.res.durations, 0.99),
			r.res.counters.Hits, r.res.counters.Misses, r.res.counters.BulkLoads,
			r.res.cacheKeys, formatBytes(r.res.memoryBytes),
		)
	}
}

type scenarioResult struct {
	durations   []time.Duration
	counters    cache.Counters
	cacheKeys   int
	memoryBytes int64
}

func runScenario(ctx context.Context, client *redis.Client, pc *cache.ProfileCache, reqs []request, warm bool, svc service.FeedService) scenarioResult {
	client.FlushAll(ctx)

	walk := func(r request) {
		cur := ""
		for p := 0; p < r.pages; p++ {
			page, err := svc.ListFollowers(ctx, r.castID, service.PageRequest{Limit: r.size, Cursor: cur})
			if err != nil {
				panic(err)
			}
			if page.NextCursor == nil {
				return
			}
			cur = *page.NextCursor
		}
	}

	if warm {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			walk(r)
		}
		fmt.Println(" done")
	}
	if pc != nil {
		pc.ResetCounters()
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		walk(r)
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	res := scenarioResult{durations: out}
	if pc != nil {
		res.counters = pc.Counters()
	}
	keys, _ := client.Keys(ctx, "profile:*").Result()
	res.cacheKeys = len(keys)
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		res.memoryBytes = parseRedisMemory(info)
	}
	return res
}

// parseRedisMemory extracts used_memory from Redis INFO
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func makeRequests(casts []model.Cast, n int) []request {
	sizes := []int{20, 40, 60}
	out := make([]request, n)
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		pages := 1
		if rnd.Float64() > 0.72 {
			// 模拟深翻页
			pages = 2 + rnd.Intn(10)
		}
		out[i] = request{
			castID: casts[rnd.Intn(len(casts))].ID,
			pages:  pages,
			size:   sizes[rnd.Intn(len(sizes))],
		}
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
