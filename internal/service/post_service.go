package service

import (
	"context"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type PostService struct {
	posts repository.PostRepository
	cache *cache.Cache
	now   func() time.Time
}

type CreatePostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// UpdatePostInput carries editable post fields; nil means "leave unchanged".
type UpdatePostInput struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url"`
}

// UpdatePostFields is the allow-list for UpdatePostInput bodies.
var UpdatePostFields = []string{"title", "content", "image_url"}

func NewPostService(posts repository.PostRepository, c *cache.Cache) *PostService {
	return &PostService{posts: posts, cache: c, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// ListPosts returns every post, newest first, through the cache.
func (s *PostService) ListPosts(ctx context.Context) ([]models.PostView, error) {
	var views []models.PostView
	err := s.cache.Aside(ctx, cache.PostListKey, &views, func() error {
		posts, err := s.posts.List(ctx)
		if err != nil {
			return err
		}
		views = models.PostViews(posts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// GetPost returns one post through the cache.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.PostView, error) {
	var view models.PostView
	err := s.cache.Aside(ctx, cache.PostKey(id), &view, func() error {
		post, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		view = post.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListPostsByAuthor returns the author's own posts, uncached.
func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID uint) ([]models.PostView, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return models.PostViews(posts), nil
}

// CreatePost stores a post for authorID. The date is today in UTC, whatever the client sent.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, in CreatePostInput) (*models.PostView, error) {
	errs := validation.Errors{}
	errs.AddErr("title", validation.ValidateTitle(in.Title))
	errs.AddErr("content", validation.ValidateContent(in.Content))
	if in.ImageURL != "" {
		errs.AddErr("image_url", validation.ValidateImageURL(in.ImageURL))
	}
	if !errs.Empty() {
		return nil, models.NewFieldValidationError(errs)
	}

	imageURL := in.ImageURL
	if imageURL == "" {
		imageURL = models.DefaultPostImage
	}
	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		AuthorID:   authorID,
		DatePosted: today(s.now()),
		ImageURL:   imageURL,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.PostListKey)

	view := post.View()
	return &view, nil
}

// GetPostForEdit returns the post only to its author.
func (s *PostService) GetPostForEdit(ctx context.Context, actorID, postID uint) (*models.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(actorID, post.AuthorID, "You can only edit your own posts."); err != nil {
		return nil, err
	}
	view := post.View()
	return &view, nil
}

// EditPost applies a partial update: lookup, then ownership, then validation.
func (s *PostService) EditPost(ctx context.Context, actorID, postID uint, in UpdatePostInput) (*models.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(actorID, post.AuthorID, "You can only edit your own posts."); err != nil {
		return nil, err
	}

	errs := validation.Errors{}
	if in.Title != nil {
		errs.AddErr("title", validation.ValidateTitle(*in.Title))
	}
	if in.Content != nil {
		errs.AddErr("content", validation.ValidateContent(*in.Content))
	}
	if in.ImageURL != nil {
		errs.AddErr("image_url", validation.ValidateImageURL(*in.ImageURL))
	}
	if !errs.Empty() {
		return nil, models.NewFieldValidationError(errs)
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.PostListKey, cache.PostKey(post.ID))

	view := post.View()
	return &view, nil
}

// DeletePost removes the post and its comments.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := ensureOwner(actorID, post.AuthorID, "You can only delete your own posts."); err != nil {
		return err
	}
	if err := s.posts.DeleteWithComments(ctx, post.ID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.PostListKey, cache.PostKey(post.ID))
	return nil
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
