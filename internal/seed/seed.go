package seed

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options controls the size of a seed run.
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	FollowsPerUser  int
	MaxDays         int
	Clean           bool
	Seed            int64
}

// DefaultOptions is a small but connected dataset.
var DefaultOptions = Options{
	NumUsers:        20,
	NumPosts:        60,
	CommentsPerPost: 3,
	FollowsPerUser:  5,
	MaxDays:         90,
	Clean:           true,
}

// Result summarizes what a run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder populates a database through a Factory.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder.
func NewSeeder(db *gorm.DB, hasher Hasher, seed int64) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, hasher, seed)}
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.Follow{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds users, a follow mesh, posts and comments.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}
	res := &Result{}
	f := s.factory

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	for _, u := range users {
		for j := 0; j < opts.FollowsPerUser && len(users) > 1; j++ {
			target := users[f.rng.Intn(len(users))]
			if target.ID == u.ID {
				continue
			}
			if err := f.Follow(u, target); err != nil {
				return nil, err
			}
		}
	}
	var follows int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).Count(&follows).Error; err != nil {
		return nil, err
	}
	res.Follows = int(follows)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		posts = append(posts, f.BuildPost(users[f.rng.Intn(len(users))], opts.MaxDays))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	for _, p := range posts {
		for j := 0; j < opts.CommentsPerPost; j++ {
			if _, err := f.CreateComment(p, users[f.rng.Intn(len(users))]); err != nil {
				return nil, err
			}
			res.Comments++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("follows", res.Follows),
	)
	return res, nil
}
