package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/castgraph/pkg/logger"
)

var (
	ErrCastNotFound    = errors.New("cast not found")
	ErrGuestNotFound   = errors.New("guest not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrCommentNotFound = errors.New("comment not found")

	ErrCannotReplyToReply = errors.New("cannot reply to a reply")
	ErrEmptyContent       = errors.New("comment needs content or media")
	ErrContentTooLong     = errors.New("comment content too long")
	ErrTooManyMedia       = errors.New("too many media attachments")
	ErrInvalidArgument    = errors.New("invalid argument")

	ErrNotCommentAuthor = errors.New("only the author can delete this comment")
)

var notFoundErrs = []error{
	ErrCastNotFound, ErrGuestNotFound, ErrUserNotFound,
	ErrPostNotFound, ErrParentNotFound, ErrCommentNotFound,
}

var validationErrs = []error{
	ErrCannotReplyToReply, ErrEmptyContent, ErrContentTooLong,
	ErrTooManyMedia, ErrInvalidArgument,
}

// IsNotFound reports whether err means the target does not exist or is
// hidden from the caller.
func IsNotFound(err error) bool { return isAny(err, notFoundErrs) }

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool { return isAny(err, validationErrs) }

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// storeFailure 记录非预期的存储错误并附带操作名返回
func storeFailure(ctx context.Context, op string, err error) error {
	logger.Ctx(ctx).Error("store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
