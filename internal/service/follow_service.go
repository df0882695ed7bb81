package service

import (
	"context"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
)

// FollowService maintains the directed follow graph. Edges are irreflexive and
// unique; neither direction implies the other.
type FollowService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	cache    *cache.Cache
	notifier *notifications.Notifier
	flags    *featureflags.Manager
}

func NewFollowService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	c *cache.Cache,
	notifier *notifications.Notifier,
	flags *featureflags.Manager,
) *FollowService {
	return &FollowService{
		users:    users,
		follows:  follows,
		cache:    c,
		notifier: notifier,
		flags:    flags,
	}
}

// Follow adds actor -> target. Following yourself is an invalid operation and
// following twice is a conflict.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.NewInvalidOperationError("You cannot follow yourself.")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.follows.Create(ctx, actorID, target.ID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.ProfileKey(target.ID))

	if s.flags.Enabled(featureflags.FollowNotifications, target.ID) {
		s.notifyFollow(ctx, actorID, target.ID)
	}
	return nil
}

// Unfollow removes actor -> target. Removing an edge that does not exist is a conflict.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.NewInvalidOperationError("You cannot unfollow yourself.")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.follows.Delete(ctx, actorID, target.ID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.ProfileKey(target.ID))
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, actorID, targetID uint) (bool, error) {
	if actorID == 0 || actorID == targetID {
		return false, nil
	}
	return s.follows.Exists(ctx, actorID, targetID)
}

func (s *FollowService) FollowersCount(ctx context.Context, targetID uint) (int64, error) {
	return s.follows.CountFollowers(ctx, targetID)
}

// FollowersList returns follower usernames, oldest follow first.
func (s *FollowService) FollowersList(ctx context.Context, targetID uint) ([]string, error) {
	return s.follows.ListFollowerUsernames(ctx, targetID)
}

// notifyFollow is best effort; the edge is already stored.
func (s *FollowService) notifyFollow(ctx context.Context, actorID, targetID uint) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return
	}
	payload := notifications.FollowPayload{FollowerID: actor.ID, FollowerUsername: actor.Username}
	if err := s.notifier.PublishUser(ctx, targetID, notifications.EventFollow, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish follow notification",
			slog.Uint64("target_id", uint64(targetID)), slog.String("error", err.Error()))
	}
}
