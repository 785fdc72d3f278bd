package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// env 基于内存 sqlite 组装完整的服务栈
type env struct {
	db       *gorm.DB
	rel      repository.RelationshipStore
	users    repository.UserRepository
	posts    repository.ContentStore
	policy   *VisibilityPolicy
	relSvc   RelationshipService
	feed     FeedService
	comments CommentService
	profiles *ProfileService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	media, err := NewURLMediaResolver("https://media.test")
	require.NoError(t, err)

	e := &env{
		db:    db,
		rel:   repository.NewRelationshipStore(db),
		users: repository.NewUserRepository(db),
		posts: repository.NewPostRepository(db),
	}
	e.policy = NewVisibilityPolicy(e.rel)
	e.relSvc = NewRelationshipService(e.rel, e.users)
	e.feed = NewFeedService(e.rel, e.users, e.posts, e.users, e.policy, DefaultPaging)
	e.comments = NewCommentService(repository.NewCommentRepository(db), e.posts, e.users, e.policy, e.users, media, DefaultPaging)
	e.profiles = NewProfileService(e.users, e.policy)
	return e
}

func (e *env) cast(t *testing.T, id string, vis model.Visibility) *model.Cast {
	t.Helper()
	c := &model.Cast{ID: id, Name: "cast " + id, AvatarURL: "https://a/" + id, Visibility: vis}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *env) guest(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Guest{ID: id, Name: "guest " + id}).Error)
}

func (e *env) post(t *testing.T, id, castID string, vis model.Visibility, at time.Time) *model.Post {
	t.Helper()
	p := &model.Post{ID: id, CastID: castID, Visibility: vis, CreatedAt: at}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func castRef(id string) model.UserRef  { return model.UserRef{ID: id, Type: model.UserCast} }
func guestRef(id string) model.UserRef { return model.UserRef{ID: id, Type: model.UserGuest} }
