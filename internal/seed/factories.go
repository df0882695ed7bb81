// Package seed creates demo data for development databases and tests.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user. It satisfies the
// registration policy so seeded accounts can log in normally.
const DefaultPassword = "Passw0rd!"

// Hasher turns a plaintext password into a stored hash.
type Hasher interface {
	Hash(password string) (string, error)
}

// Factory builds domain entities and persists them.
type Factory struct {
	db     *gorm.DB
	hasher Hasher
	rng    *rand.Rand
	now    func() time.Time

	// hash is computed once; bcrypt per user makes large seeds crawl.
	hash string
}

// NewFactory binds a Factory to db. A non-zero seed makes output repeatable.
func NewFactory(db *gorm.DB, hasher Hasher, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{
		db:     db,
		hasher: hasher,
		rng:    rand.New(rand.NewSource(seed)),
		now:    time.Now,
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	h, err := f.hasher.Hash(DefaultPassword)
	if err != nil {
		return "", err
	}
	f.hash = h
	return h, nil
}

// CreateUser persists a fake user. Overrides run before the insert.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}

	// gofakeit usernames can repeat; the suffix keeps the unique index happy.
	username := fmt.Sprintf("%s%d", sanitizeUsername(gofakeit.Username()), gofakeit.Number(100, 999))
	user := &models.User{
		Username: username,
		Email:    strings.ToLower(username) + "@" + gofakeit.DomainName(),
		Password: hash,
		Image:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		AboutMe:  gofakeit.Sentence(10),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost returns an unsaved post by author dated within the last maxDays.
func (f *Factory) BuildPost(author *models.User, maxDays int) *models.Post {
	if maxDays <= 0 {
		maxDays = 90
	}
	y, m, d := f.now().UTC().AddDate(0, 0, -f.rng.Intn(maxDays)).Date()

	post := &models.Post{
		Title:      strings.TrimSuffix(gofakeit.Sentence(5), "."),
		Content:    gofakeit.Paragraph(1, 3, 12, "\n"),
		AuthorID:   author.ID,
		DatePosted: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		ImageURL:   models.DefaultPostImage,
	}
	if f.rng.Intn(3) == 0 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/400", gofakeit.UUID())
	}
	return post
}

// CreatePostsBatch persists posts in a single statement.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit("Author").Create(&posts).Error
}

// CreateComment persists a fake comment by author on post.
func (f *Factory) CreateComment(post *models.Post, author *models.User) (*models.Comment, error) {
	c := &models.Comment{
		PostID:     post.ID,
		AuthorID:   author.ID,
		Content:    gofakeit.Sentence(f.rng.Intn(15) + 3),
		DatePosted: post.DatePosted.Add(time.Duration(f.rng.Intn(24*60)) * time.Minute),
	}
	if err := f.db.Omit("Author").Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// Follow makes follower follow followee. Self edges and repeats are skipped.
func (f *Factory) Follow(follower, followee *models.User) error {
	if follower.ID == followee.ID {
		return nil
	}
	edge := &models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(edge).Error
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	out := b.String()
	if len(out) > 140 {
		out = out[:140]
	}
	return out
}
