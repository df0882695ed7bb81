package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/cache"
	"inkwell/internal/database"
	"inkwell/internal/featureflags"
	"inkwell/internal/mail"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/otp"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPassword = "Passw0rd!"
	testSecret   = "service-test-secret-service-test-secret"
)

// fixture wires every service over an in-memory SQLite database and in-memory stores.
type fixture struct {
	db         *gorm.DB
	store      *cache.MemoryStore
	users      repository.UserRepository
	posts      repository.PostRepository
	codes      *otp.MemoryStore
	mailer     *mail.LogMailer
	hub        *notifications.Hub
	resetClock time.Time

	userSvc    *UserService
	followSvc  *FollowService
	postSvc    *PostService
	commentSvc *CommentService
	otpSvc     *OTPService
	resetSvc   *PasswordResetService
}

func newFixture(t *testing.T, flags string) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		db:         db,
		store:      cache.NewMemoryStore(),
		users:      repository.NewUserRepository(db),
		posts:      repository.NewPostRepository(db),
		codes:      otp.NewMemoryStore(),
		mailer:     mail.NewLogMailer(nil),
		hub:        notifications.NewHub(),
		resetClock: time.Now(),
	}
	c := cache.New(f.store, time.Minute)
	follows := repository.NewFollowRepository(db)
	comments := repository.NewCommentRepository(db)
	passwords := NewPasswords(bcrypt.MinCost)
	ff := featureflags.NewManager(flags)
	notifier := notifications.NewNotifier(nil, f.hub)
	resetTokens := auth.NewResetTokens(testSecret, 0).WithClock(func() time.Time { return f.resetClock })

	f.userSvc = NewUserService(f.users, follows, f.posts, c, passwords, f.codes, ff)
	f.followSvc = NewFollowService(f.users, follows, c, notifier, ff)
	f.postSvc = NewPostService(f.posts, c)
	f.commentSvc = NewCommentService(comments, f.posts, notifier, ff)
	f.otpSvc = NewOTPService(f.users, f.codes, f.mailer, 0)
	f.resetSvc = NewPasswordResetService(f.users, resetTokens, passwords, f.mailer, c, "http://localhost:3000/")
	return f
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.userSvc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    strings.ReplaceAll(username, " ", ".") + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) createPost(t *testing.T, author *models.User, title string) *models.PostView {
	t.Helper()
	p, err := f.postSvc.CreatePost(context.Background(), author.ID, CreatePostInput{Title: title, Content: "body of " + title})
	require.NoError(t, err)
	return p
}

// failingMailer rejects every message.
type failingMailer struct{}

func (failingMailer) Send(context.Context, mail.Message) error {
	return errors.New("smtp: connection refused")
}

func ptr[T any](v T) *T { return &v }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, models.CodeValidation, appErr.Code)
	return appErr.Fields
}
