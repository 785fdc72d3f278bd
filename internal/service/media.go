package service

import (
	"context"
	"net/url"

	"github.com/d60-Lab/castgraph/internal/model"
)

// MediaURL 附件的访问地址
type MediaURL struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// MediaResolver maps media ids to URLs, one call per page.
type MediaResolver interface {
	Resolve(ctx context.Context, media []model.CommentMedia) (map[string]MediaURL, error)
}

// URLMediaResolver derives URLs from a base URL. Signing is left to the
// media service in front of it.
type URLMediaResolver struct {
	base *url.URL
}

func NewURLMediaResolver(baseURL string) (*URLMediaResolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidArgument
	}
	return &URLMediaResolver{base: u}, nil
}

func (r *URLMediaResolver) Resolve(_ context.Context, media []model.CommentMedia) (map[string]MediaURL, error) {
	out := make(map[string]MediaURL, len(media))
	for _, m := range media {
		kind := m.MediaType.String() + "s"
		out[m.MediaID] = MediaURL{
			URL:          r.base.JoinPath(kind, m.MediaID).String(),
			ThumbnailURL: r.base.JoinPath("thumbnails", m.MediaID).String(),
		}
	}
	return out, nil
}
