package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_ServerSetsDateAndDefaults(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	author := f.register(t, "writer")
	f.postSvc.WithClock(func() time.Time {
		// 23:30 in UTC-5 is already the next day in UTC.
		return time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	})

	view, err := f.postSvc.CreatePost(ctx, author.ID, CreatePostInput{Title: "First", Content: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", view.DatePosted)
	assert.Equal(t, models.DefaultPostImage, view.ImageURL)
	assert.Equal(t, "writer", view.Author.Username)
	assert.Equal(t, author.Email, view.Author.Email)
}

func TestCreatePost_Validation(t *testing.T) {
	f := newFixture(t, "")
	author := f.register(t, "writer")

	_, err := f.postSvc.CreatePost(context.Background(), author.ID, CreatePostInput{Title: " ", Content: "", ImageURL: "ftp://x"})
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "content")
	assert.Contains(t, fields, "image_url")
}

func TestPostList_EmptyListIsCachedAndCreateInvalidates(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	author := f.register(t, "writer")

	list, err := f.postSvc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, f.store.Has(cache.PostListKey), "an empty list is stored like any other")

	f.createPost(t, author, "new")
	assert.False(t, f.store.Has(cache.PostListKey))

	list, err = f.postSvc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEditPost_Guard(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	owner := f.register(t, "owner")
	other := f.register(t, "other")
	post := f.createPost(t, owner, "mine")

	_, err := f.postSvc.EditPost(ctx, other.ID, post.ID, UpdatePostInput{Title: ptr("stolen")})
	assertCode(t, err, models.CodeForbidden)

	_, err = f.postSvc.EditPost(ctx, other.ID, 999, UpdatePostInput{Title: ptr("x")})
	assertCode(t, err, models.CodeNotFound)

	_, err = f.postSvc.GetPostForEdit(ctx, other.ID, post.ID)
	assertCode(t, err, models.CodeForbidden)

	got, err := f.postSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	// Ownership is checked before the body is validated.
	_, err = f.postSvc.EditPost(ctx, other.ID, post.ID, UpdatePostInput{Title: ptr("")})
	assertCode(t, err, models.CodeForbidden)
}

func TestEditPost_PartialUpdateInvalidates(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	owner := f.register(t, "owner")
	post := f.createPost(t, owner, "draft")

	_, err := f.postSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	_, err = f.postSvc.ListPosts(ctx)
	require.NoError(t, err)

	updated, err := f.postSvc.EditPost(ctx, owner.ID, post.ID, UpdatePostInput{Title: ptr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "body of draft", updated.Content)
	assert.Equal(t, post.DatePosted, updated.DatePosted)

	assert.False(t, f.store.Has(cache.PostKey(post.ID)))
	assert.False(t, f.store.Has(cache.PostListKey))

	got, err := f.postSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
}

func TestDeletePost_CascadesAndInvalidates(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	owner := f.register(t, "owner")
	reader := f.register(t, "reader")
	post := f.createPost(t, owner, "doomed")

	_, err := f.commentSvc.AddComment(ctx, reader.ID, post.ID, CreateCommentInput{Content: "first!"})
	require.NoError(t, err)
	_, err = f.postSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)

	err = f.postSvc.DeletePost(ctx, reader.ID, post.ID)
	assertCode(t, err, models.CodeForbidden)

	require.NoError(t, f.postSvc.DeletePost(ctx, owner.ID, post.ID))
	assert.False(t, f.store.Has(cache.PostKey(post.ID)))

	_, err = f.postSvc.GetPost(ctx, post.ID)
	assertCode(t, err, models.CodeNotFound)

	var remaining int64
	require.NoError(t, f.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestListPostsByAuthor(t *testing.T) {
	f := newFixture(t, "")
	a := f.register(t, "a")
	b := f.register(t, "b")
	f.createPost(t, a, "a1")
	f.createPost(t, b, "b1")
	f.createPost(t, a, "a2")

	mine, err := f.postSvc.ListPostsByAuthor(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a2", mine[0].Title)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
}

func (s *postRepoStub) Create(context.Context, *models.Post) error { return nil }
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(context.Context) ([]*models.Post, error) { return nil, nil }
func (s *postRepoStub) ListByAuthor(context.Context, uint) ([]*models.Post, error) {
	return nil, nil
}
func (s *postRepoStub) IDsByAuthor(context.Context, uint) ([]uint, error) { return nil, nil }
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) DeleteWithComments(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func TestPostService_ForbiddenNeverWrites(t *testing.T) {
	writes := 0
	repo := &postRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 1, Title: "t", Content: "c"}, nil
		},
		updateFn: func(context.Context, *models.Post) error { writes++; return nil },
		deleteFn: func(context.Context, uint) error { writes++; return nil },
	}
	svc := NewPostService(repo, nil)
	ctx := context.Background()

	_, err := svc.EditPost(ctx, 2, 10, UpdatePostInput{Title: ptr("x")})
	assertCode(t, err, models.CodeForbidden)
	assertCode(t, svc.DeletePost(ctx, 2, 10), models.CodeForbidden)
	assertCode(t, svc.DeletePost(ctx, 0, 10), models.CodeForbidden)
	assert.Zero(t, writes)
}

func TestPostService_RepositoryErrorsPropagate(t *testing.T) {
	boom := models.NewInternalError(errors.New("db down"))
	repo := &postRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Post, error) {
			return &models.Post{ID: 1, AuthorID: 1, Title: "t", Content: "c"}, nil
		},
		updateFn: func(context.Context, *models.Post) error { return boom },
		deleteFn: func(context.Context, uint) error { return boom },
	}
	store := cache.NewMemoryStore()
	svc := NewPostService(repo, cache.New(store, time.Minute))
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, cache.PostKey(1), []byte(`{"id":1}`), time.Minute))

	_, err := svc.EditPost(ctx, 1, 1, UpdatePostInput{Title: ptr("x")})
	assertCode(t, err, models.CodeInternal)
	assert.True(t, store.Has(cache.PostKey(1)), "failed writes leave the cache alone")
}
