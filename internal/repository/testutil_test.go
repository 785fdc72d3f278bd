package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/castgraph/internal/model"
)

type tb interface {
	require.TestingT
	Helper()
	Name() string
}

func openTestDB(t tb) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func seedCast(t tb, db *gorm.DB, id string, vis model.Visibility) {
	t.Helper()
	require.NoError(t, db.Create(&model.Cast{ID: id, Name: "cast " + id, AvatarURL: "https://a/" + id, Visibility: vis}).Error)
}

func seedGuest(t tb, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Guest{ID: id, Name: "guest " + id}).Error)
}

func seedPost(t tb, db *gorm.DB, id, castID string, vis model.Visibility, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Post{ID: id, CastID: castID, Visibility: vis, CreatedAt: at}).Error)
}
