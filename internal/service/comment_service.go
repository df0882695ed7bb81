package service

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	notifier *notifications.Notifier
	flags    *featureflags.Manager
	now      func() time.Time
}

type CreateCommentInput struct {
	Content string `json:"content"`
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	notifier *notifications.Notifier,
	flags *featureflags.Manager,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		notifier: notifier,
		flags:    flags,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *CommentService) WithClock(now func() time.Time) *CommentService {
	s.now = now
	return s
}

// ListComments returns the post's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return models.CommentViews(comments), nil
}

// AddComment binds author and post server side; the post must exist.
func (s *CommentService) AddComment(ctx context.Context, actorID, postID uint, in CreateCommentInput) (*models.CommentView, error) {
	if err := validation.ValidateComment(in.Content); err != nil {
		return nil, models.NewFieldValidationError(map[string][]string{"content": {err.Error()}})
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:     post.ID,
		AuthorID:   actorID,
		Content:    in.Content,
		DatePosted: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.AuthorID != actorID && s.flags.Enabled(featureflags.CommentNotifications, post.AuthorID) {
		payload := notifications.CommentPayload{
			PostID:         post.ID,
			PostTitle:      post.Title,
			CommentID:      comment.ID,
			AuthorID:       actorID,
			AuthorUsername: comment.Author.Username,
		}
		if err := s.notifier.PublishUser(ctx, post.AuthorID, notifications.EventComment, payload); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish comment notification",
				slog.Uint64("post_id", uint64(post.ID)), slog.String("error", err.Error()))
		}
	}

	view := comment.View()
	return &view, nil
}

// DeleteComment is allowed only for the comment's author.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := ensureOwner(actorID, comment.AuthorID, "You can only delete your own comments."); err != nil {
		return err
	}
	return s.comments.Delete(ctx, comment.ID)
}
