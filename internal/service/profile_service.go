package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
)

// CastProfile 对外展示的 cast 资料
type CastProfile struct {
	model.Profile
	Visibility     model.Visibility `json:"visibility"`
	DetailsVisible bool             `json:"details_visible"`
}

// ProfileService resolves a cast profile as seen by a viewer. A profile
// hidden by a block is reported as ErrCastNotFound.
type ProfileService struct {
	users  repository.UserRepository
	policy *VisibilityPolicy
}

func NewProfileService(users repository.UserRepository, policy *VisibilityPolicy) *ProfileService {
	return &ProfileService{users: users, policy: policy}
}

func (s *ProfileService) GetCast(ctx context.Context, castID, viewerID string) (*CastProfile, error) {
	if err := requireIDs(castID); err != nil {
		return nil, err
	}
	cast, err := s.users.GetCast(ctx, castID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCastNotFound
		}
		return nil, storeFailure(ctx, "get cast", err)
	}
	f, err := s.policy.factsFor(ctx, viewerID, cast)
	if err != nil {
		return nil, err
	}
	if !canViewProfile(cast, viewerID, f) {
		return nil, ErrCastNotFound
	}
	return &CastProfile{
		Profile:        model.Profile{ID: cast.ID, Type: model.UserCast, Name: cast.Name, AvatarURL: cast.AvatarURL},
		Visibility:     cast.Visibility,
		DetailsVisible: canViewProfileDetails(cast, viewerID, f),
	}, nil
}
