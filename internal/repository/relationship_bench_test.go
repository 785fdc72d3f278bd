package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/d60-Lab/castgraph/internal/model"
)

func BenchmarkFollowWrite_And_Block(b *testing.B) {
	db := openTestDB(b)
	store := NewRelationshipStore(db)
	ctx := context.Background()

	// 预创建部分 cast
	casts := make([]model.Cast, 200)
	for i := range casts {
		casts[i] = model.Cast{ID: fmt.Sprintf("c%04d", i), Name: fmt.Sprintf("c%04d", i), Visibility: model.VisibilityPublic}
	}
	if err := db.Create(&casts).Error; err != nil {
		b.Fatalf("seed casts: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		castID := casts[rng.Intn(len(casts))].ID
		guestID := fmt.Sprintf("g%05d", rng.Intn(5000))
		if i%10 == 0 {
			_ = store.CreateBlock(ctx, model.Block{BlockerID: castID, BlockerType: model.UserCast, BlockedID: guestID, BlockedType: model.UserGuest})
			continue
		}
		_, _ = store.CreateFollow(ctx, castID, guestID)
	}
}

func BenchmarkQueryFollowersAndFeed(b *testing.B) {
	db := openTestDB(b)
	store := NewRelationshipStore(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	// 构造：c0 有 N 个粉丝，g0 关注 N 个 cast，每个 cast 一条动态
	const N = 2000
	for i := 1; i <= N; i++ {
		castID := fmt.Sprintf("c%d", i)
		_ = db.Create(&model.Cast{ID: castID, Name: castID, Visibility: model.VisibilityPublic}).Error
		_ = db.Create(&model.Post{ID: "p" + castID, CastID: castID, Visibility: model.VisibilityPublic}).Error
		_, _ = store.CreateFollow(ctx, "c0", fmt.Sprintf("g%d", i))
		_, _ = store.CreateFollow(ctx, castID, "g0")
	}
	following, _ := store.FollowingCastIDs(ctx, "g0", 0)

	b.ResetTimer()
	b.Run("ListFollowers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = store.ListFollowers(ctx, "c0", nil, 51)
		}
	})

	b.Run("ListPostsByCastIDs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = posts.ListPostsByCastIDs(ctx, PostQuery{CastIDs: following, Limit: 51})
		}
	})
}
