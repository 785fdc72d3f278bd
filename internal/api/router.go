package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/castgraph/docs"
	"github.com/d60-Lab/castgraph/internal/api/handler"
	"github.com/d60-Lab/castgraph/internal/api/middleware"
)

// Options 路由可选组件
type Options struct {
	JWTSecret   []byte
	ServiceName string // 非空时启用 otelgin
	Sentry      bool
	Swagger     bool
}

// NewRouter 注册全部路由
func NewRouter(h *handler.Handler, opts Options) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")

	// 匿名可访问
	public := v1.Group("")
	public.Use(middleware.OptionalAuth(opts.JWTSecret))
	{
		public.GET("/casts/:cast_id", h.GetCast)
	}

	auth := v1.Group("")
	auth.Use(middleware.Auth(opts.JWTSecret))
	{
		auth.POST("/follows", h.Follow)
		auth.GET("/follows/status", h.FollowStatus)
		auth.DELETE("/follows/:cast_id", h.Unfollow)
		auth.POST("/follows/:guest_id/approve", h.ApproveFollow)
		auth.GET("/casts/:cast_id/followers", h.ListFollowers)

		auth.POST("/blocks", h.Block)
		auth.GET("/blocks", h.ListBlocked)
		auth.DELETE("/blocks/:blocked_id", h.Unblock)

		auth.POST("/favorites", h.AddFavorite)
		auth.GET("/favorites/status", h.FavoriteStatus)
		auth.DELETE("/favorites/:cast_id", h.RemoveFavorite)

		auth.GET("/feed", h.GuestFeed)
		auth.GET("/me/posts", h.CastFeed)
		auth.GET("/me/following", h.ListFollowing)

		auth.GET("/posts/:post_id/comments", h.ListComments)
		auth.POST("/posts/:post_id/comments", h.AddComment)
		auth.GET("/comments/:comment_id/replies", h.ListReplies)
		auth.DELETE("/comments/:comment_id", h.DeleteComment)
	}
	return r, nil
}
