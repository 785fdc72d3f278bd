package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/castgraph/config"
	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
	"github.com/d60-Lab/castgraph/internal/service"
	"github.com/d60-Lab/castgraph/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// pct 取分位数
func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		panic(err)
	}

	N := envInt("N", 10000)
	CONC := envInt("CONC", 1)
	PAGE := envInt("PAGE", 50)

	users := repository.NewUserRepository(db)
	store := repository.NewRelationshipStore(db)
	posts := repository.NewPostRepository(db)
	policy := service.NewVisibilityPolicy(store)
	relSvc := service.NewRelationshipService(store, users)
	feedSvc := service.NewFeedService(store, users, posts, users, policy,
		service.Paging{DefaultLimit: PAGE, MaxLimit: PAGE})

	ctx := context.Background()

	// c0 是大 V，私密账号；其余 guest 全部关注 c0
	celeb := model.Cast{ID: "c0", Name: "c0", Visibility: model.VisibilityPrivate}
	_ = db.Where("id = ?", celeb.ID).FirstOrCreate(&celeb).Error

	postRows := make([]model.Post, 0, 200)
	base := time.Now().UTC()
	for i := 0; i < 200; i++ {
		vis := model.VisibilityPublic
		if i%3 == 0 {
			vis = model.VisibilityPrivate
		}
		postRows = append(postRows, model.Post{
			ID: uuid.NewString(), CastID: celeb.ID, Visibility: vis,
			Content: fmt.Sprintf("post %d", i), CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	_ = db.CreateInBatches(&postRows, 100).Error

	guests := make([]model.Guest, N)
	for i := range guests {
		id := uuid.NewString()
		guests[i] = model.Guest{ID: id, Name: "g" + id[:8]}
	}
	_ = db.CreateInBatches(&guests, 1000).Error

	// follow with CONC workers
	workers := CONC
	if workers > N {
		workers = N
	}
	lat := make(chan time.Duration, N)
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)

	done := make(chan struct{}, workers)
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			for i := range feed {
				st := time.Now()
				_ = relSvc.Follow(ctx, celeb.ID, guests[i].ID)
				lat <- time.Since(st)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	close(lat)
	followDur := time.Since(t0)
	followRecs := make([]time.Duration, 0, N)
	for d := range lat {
		followRecs = append(followRecs, d)
	}

	// 一半审批通过，另一半保持 pending
	t1 := time.Now()
	for i := 0; i < N; i += 2 {
		_, _ = relSvc.ApproveFollow(ctx, celeb.ID, guests[i].ID)
	}
	approveDur := time.Since(t1)

	// 翻完整个粉丝列表
	var pageRecs []time.Duration
	total := 0
	cur := ""
	for {
		st := time.Now()
		page, err := feedSvc.ListFollowers(ctx, celeb.ID, service.PageRequest{Limit: PAGE, Cursor: cur})
		pageRecs = append(pageRecs, time.Since(st))
		if err != nil {
			panic(err)
		}
		total += len(page.Items)
		if page.NextCursor == nil {
			break
		}
		cur = *page.NextCursor
	}

	// feed：approved 看到全部，pending 只看到 public
	var feedRecs []time.Duration
	for i := 0; i < 200 && i < N; i++ {
		st := time.Now()
		_, _ = feedSvc.ListGuestFeed(ctx, service.GuestFeedRequest{
			GuestID:     guests[i].ID,
			Filter:      model.FeedFollowing,
			PageRequest: service.PageRequest{Limit: PAGE},
		})
		feedRecs = append(feedRecs, time.Since(st))
	}

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Follow total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		followDur, followDur/time.Duration(N), pct(followRecs, 0.50), pct(followRecs, 0.95), pct(followRecs, 0.99))
	fmt.Printf("Approve %d: %v\n", (N+1)/2, approveDur)
	fmt.Printf("Followers walk: rows=%d, pages=%d, p50=%v, p99=%v\n",
		total, len(pageRecs), pct(pageRecs, 0.50), pct(pageRecs, 0.99))
	fmt.Printf("Guest feed(%d): samples=%d, p50=%v, p95=%v, p99=%v\n",
		PAGE, len(feedRecs), pct(feedRecs, 0.50), pct(feedRecs, 0.95), pct(feedRecs, 0.99))
}
