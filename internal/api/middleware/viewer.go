package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/pkg/logger"
	"github.com/d60-Lab/castgraph/pkg/response"
)

var (
	ErrMissingToken = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Viewer 当前请求的已认证用户
type Viewer struct {
	ID   string
	Type model.UserType
}

func (v Viewer) Ref() model.UserRef { return model.UserRef{ID: v.ID, Type: v.Type} }

// Claims：sub 为用户 id，role 为 cast / guest
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type viewerKey struct{}

// ViewerFrom returns the viewer stored by Auth or OptionalAuth.
func ViewerFrom(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey{}).(Viewer)
	return v, ok
}

// WithViewer stores v in ctx.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// SignToken issues an HS256 token for v.
func SignToken(secret []byte, v Viewer, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: v.Type.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   v.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString(secret)
}

// ParseToken 校验签名与过期时间并还原 Viewer
func ParseToken(secret []byte, tokenStr string) (Viewer, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Viewer{}, ErrInvalidToken
	}
	role, err := model.ParseUserType(claims.Role)
	if err != nil || claims.Subject == "" {
		return Viewer{}, ErrInvalidToken
	}
	return Viewer{ID: claims.Subject, Type: role}, nil
}

func bearer(c *gin.Context) (string, error) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

func attach(c *gin.Context, v Viewer) {
	ctx := WithViewer(c.Request.Context(), v)
	ctx = logger.WithContext(ctx, zap.String("viewer_id", v.ID), zap.Stringer("viewer_type", v.Type))
	c.Request = c.Request.WithContext(ctx)
}

// Auth requires a valid bearer token.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := bearer(c)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		v, err := ParseToken(secret, tok)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		attach(c, v)
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through; a token that is present
// must still be valid.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := bearer(c)
		if errors.Is(err, ErrMissingToken) {
			c.Next()
			return
		}
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		v, err := ParseToken(secret, tok)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		attach(c, v)
		c.Next()
	}
}
