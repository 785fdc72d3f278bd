package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// ErrUnknownEnum 反序列化遇到未知取值
var ErrUnknownEnum = errors.New("unknown enum value")

// enum 是所有字符串枚举共用的编解码实现，保证 to-wire / from-wire 只有一处
type enum[T ~uint8] struct {
	name   string
	values []string // index = T
}

func (e enum[T]) format(v T) string {
	if int(v) < len(e.values) && v != 0 {
		return e.values[v]
	}
	return ""
}

func (e enum[T]) parse(s string) (T, error) {
	for i, w := range e.values {
		if i > 0 && w == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownEnum, e.name, s)
}

func (e enum[T]) scan(dst *T, src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("%w: %s from %T", ErrUnknownEnum, e.name, src)
	}
	v, err := e.parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// Visibility of a cast profile or a post.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota + 1
	VisibilityPrivate
)

var visibilityEnum = enum[Visibility]{name: "visibility", values: []string{"", "public", "private"}}

func (v Visibility) String() string { return visibilityEnum.format(v) }
func ParseVisibility(s string) (Visibility, error) { return visibilityEnum.parse(s) }
func (v Visibility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }
func (v *Visibility) UnmarshalText(b []byte) error { return visibilityEnum.scan(v, b) }
func (v Visibility) Value() (driver.Value, error) { return v.String(), nil }
func (v *Visibility) Scan(src any) error { return visibilityEnum.scan(v, src) }
func (Visibility) GormDataType() string { return "varchar(16)" }

// FollowStatus of a guest→cast follow. pending → approved only.
type FollowStatus uint8

const (
	FollowPending FollowStatus = iota + 1
	FollowApproved
)

var followStatusEnum = enum[FollowStatus]{name: "follow status", values: []string{"", "pending", "approved"}}

func (s FollowStatus) String() string { return followStatusEnum.format(s) }
func ParseFollowStatus(v string) (FollowStatus, error) { return followStatusEnum.parse(v) }
func (s FollowStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *FollowStatus) UnmarshalText(b []byte) error { return followStatusEnum.scan(s, b) }
func (s FollowStatus) Value() (driver.Value, error) { return s.String(), nil }
func (s *FollowStatus) Scan(src any) error { return followStatusEnum.scan(s, src) }
func (FollowStatus) GormDataType() string { return "varchar(16)" }

// UserType distinguishes the two account roles.
type UserType uint8

const (
	UserCast UserType = iota + 1
	UserGuest
)

var userTypeEnum = enum[UserType]{name: "user type", values: []string{"", "cast", "guest"}}

func (t UserType) String() string { return userTypeEnum.format(t) }
func ParseUserType(s string) (UserType, error) { return userTypeEnum.parse(s) }
func (t UserType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *UserType) UnmarshalText(b []byte) error { return userTypeEnum.scan(t, b) }
func (t UserType) Value() (driver.Value, error) { return t.String(), nil }
func (t *UserType) Scan(src any) error { return userTypeEnum.scan(t, src) }
func (UserType) GormDataType() string { return "varchar(8)" }

// MediaType of a comment attachment.
type MediaType uint8

const (
	MediaImage MediaType = iota + 1
	MediaVideo
)

var mediaTypeEnum = enum[MediaType]{name: "media type", values: []string{"", "image", "video"}}

func (t MediaType) String() string { return mediaTypeEnum.format(t) }
func ParseMediaType(s string) (MediaType, error) { return mediaTypeEnum.parse(s) }
func (t MediaType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *MediaType) UnmarshalText(b []byte) error { return mediaTypeEnum.scan(t, b) }
func (t MediaType) Value() (driver.Value, error) { return t.String(), nil }
func (t *MediaType) Scan(src any) error { return mediaTypeEnum.scan(t, src) }
func (MediaType) GormDataType() string { return "varchar(8)" }

// FeedFilter selects the candidate casts of a guest feed.
type FeedFilter uint8

const (
	FeedAll FeedFilter = iota + 1
	FeedFollowing
	FeedFavorites
)

var feedFilterEnum = enum[FeedFilter]{name: "feed filter", values: []string{"", "all", "following", "favorites"}}

func (f FeedFilter) String() string { return feedFilterEnum.format(f) }
func ParseFeedFilter(s string) (FeedFilter, error) { return feedFilterEnum.parse(s) }
func (f FeedFilter) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (f *FeedFilter) UnmarshalText(b []byte) error { return feedFilterEnum.scan(f, b) }
