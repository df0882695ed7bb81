package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister_Defaults(t *testing.T) {
	f := newFixture(t, "")
	u := f.register(t, "Jane Doe")

	assert.NotZero(t, u.ID)
	assert.Equal(t, "Jane Doe", u.Username)
	assert.Equal(t, "Jane.Doe@example.com", u.Email)
	assert.Equal(t, "https://ui-avatars.com/api/?name=Jane+Doe&background=random", u.Image)
	assert.Equal(t, models.DefaultAboutMe, u.AboutMe)
	assert.NotEqual(t, testPassword, u.Password)
	assert.True(t, f.userSvc.passwords.Matches(u.Password, testPassword))
}

func TestRegister_CollectsEveryFieldError(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.userSvc.Register(context.Background(), RegisterInput{
		Username: "bad!name",
		Email:    "not-an-email",
		Password: "short",
	})
	fields := fieldsOf(t, err)
	assert.Len(t, fields["username"], 1)
	assert.Len(t, fields["email"], 1)
	// short, no uppercase, no digit, no special character
	assert.Len(t, fields["password"], 4)
	assert.Contains(t, fields["password"][0], "at least 8 characters")
}

func TestRegister_Uniqueness(t *testing.T) {
	f := newFixture(t, "")
	f.register(t, "alice")

	_, err := f.userSvc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: testPassword,
	})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"A user with that email already exists."}, fields["email"])
	assert.Equal(t, []string{"A user with that username already exists."}, fields["username"])
}

func TestRegister_LongPassword(t *testing.T) {
	f := newFixture(t, "")
	long := strings.Repeat("Aa1!", 32)
	require.Len(t, long, 128)

	_, err := f.userSvc.Register(context.Background(), RegisterInput{Username: "long", Email: "long@example.com", Password: long})
	require.NoError(t, err)

	_, err = f.userSvc.Authenticate(context.Background(), "long", long)
	assert.NoError(t, err)
	// Only the first 72 bytes would matter without the prehash.
	_, err = f.userSvc.Authenticate(context.Background(), "long", long[:100]+strings.Repeat("x", 28))
	assertCode(t, err, models.CodeUnauthorized)
}

func TestRegister_RequiresVerifiedEmailWhenFlagged(t *testing.T) {
	f := newFixture(t, "registration_otp=on")
	ctx := context.Background()
	in := RegisterInput{Username: "otpuser", Email: "otpuser@example.com", Password: testPassword}

	_, err := f.userSvc.Register(ctx, in)
	assert.Equal(t, []string{"Email address has not been verified."}, fieldsOf(t, err)["email"])

	require.NoError(t, f.otpSvc.SendOTP(ctx, in.Email))
	code, ok := f.codes.Code(in.Email)
	require.True(t, ok)
	require.NoError(t, f.otpSvc.VerifyOTP(ctx, in.Email, code))

	_, err = f.userSvc.Register(ctx, in)
	require.NoError(t, err)
}

// conflictOnCreate fails every insert as a lost unique-index race would.
type conflictOnCreate struct {
	repository.UserRepository
}

func (conflictOnCreate) Create(context.Context, *models.User) error {
	return models.NewConflictError("A user with that username already exists.")
}

func TestRegister_FailedInsertKeepsEmailVerified(t *testing.T) {
	f := newFixture(t, "registration_otp=on")
	ctx := context.Background()
	in := RegisterInput{Username: "racer", Email: "racer@example.com", Password: testPassword}

	require.NoError(t, f.otpSvc.SendOTP(ctx, in.Email))
	code, ok := f.codes.Code(in.Email)
	require.True(t, ok)
	require.NoError(t, f.otpSvc.VerifyOTP(ctx, in.Email, code))

	racing := NewUserService(
		conflictOnCreate{f.users},
		repository.NewFollowRepository(f.db),
		f.posts,
		cache.New(f.store, time.Minute),
		NewPasswords(bcrypt.MinCost),
		f.codes,
		featureflags.NewManager("registration_otp=on"),
	)
	_, err := racing.Register(ctx, in)
	assertCode(t, err, models.CodeConflict)

	// The verification survived, so a retry goes through without a new code.
	u, err := f.userSvc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "racer", u.Username)
}

func TestAuthenticate_IndistinguishableFailures(t *testing.T) {
	f := newFixture(t, "")
	f.register(t, "bob")
	ctx := context.Background()

	u, err := f.userSvc.Authenticate(ctx, "bob", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	_, wrongPw := f.userSvc.Authenticate(ctx, "bob", "Wrong0ne!")
	_, noUser := f.userSvc.Authenticate(ctx, "nobody", testPassword)
	assertCode(t, wrongPw, models.CodeUnauthorized)
	assertCode(t, noUser, models.CodeUnauthorized)
	assert.Equal(t, wrongPw.Error(), noUser.Error())
}

func TestGetPublicProfile_FollowFlag(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	p, err := f.userSvc.GetPublicProfile(ctx, 0, alice.ID)
	require.NoError(t, err)
	assert.False(t, p.IsFollowing, "anonymous")
	assert.Empty(t, p.Followers)

	require.NoError(t, f.followSvc.Follow(ctx, bob.ID, alice.ID))

	p, err = f.userSvc.GetPublicProfile(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, p.IsFollowing)
	assert.Equal(t, int64(1), p.FollowersCount)
	assert.Equal(t, []string{"bob"}, p.Followers)

	p, err = f.userSvc.GetPublicProfile(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, p.IsFollowing, "self")

	_, err = f.userSvc.GetPublicProfile(ctx, 0, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestUpdateProfile_ValidatesBeforeAssigning(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	carol := f.register(t, "carol")
	f.register(t, "dave")

	_, err := f.userSvc.UpdateProfile(ctx, carol.ID, ProfileUpdate{
		Username: ptr("renamed"),
		Email:    ptr("dave@example.com"),
		Image:    ptr("not a url"),
	})
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "image")
	assert.NotContains(t, fields, "username")

	unchanged, err := f.users.GetByID(ctx, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", unchanged.Username, "no field is written when any fails")

	// Keeping your own username and email is not a conflict.
	p, err := f.userSvc.UpdateProfile(ctx, carol.ID, ProfileUpdate{
		Username: ptr("carol"),
		Email:    ptr("carol@example.com"),
		AboutMe:  ptr("Writes about Go."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Writes about Go.", p.AboutMe)
}

func TestUpdateProfile_RenameRefreshesFollowedProfiles(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	require.NoError(t, f.followSvc.Follow(ctx, alice.ID, bob.ID))

	before, err := f.userSvc.GetPublicProfile(ctx, 0, bob.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, before.Followers)
	require.True(t, f.store.Has(cache.ProfileKey(bob.ID)))

	_, err = f.userSvc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: ptr("alicia")})
	require.NoError(t, err)
	assert.False(t, f.store.Has(cache.ProfileKey(bob.ID)))

	after, err := f.userSvc.GetPublicProfile(ctx, 0, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alicia"}, after.Followers)
}

func TestUpdateProfile_InvalidatesProfileAndAuthorPosts(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	erin := f.register(t, "erin")
	post := f.createPost(t, erin, "hello")

	_, err := f.userSvc.GetOwnProfile(ctx, erin.ID)
	require.NoError(t, err)
	_, err = f.postSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	_, err = f.postSvc.ListPosts(ctx)
	require.NoError(t, err)
	require.True(t, f.store.Has(cache.ProfileKey(erin.ID)))
	require.True(t, f.store.Has(cache.PostKey(post.ID)))

	p, err := f.userSvc.UpdateProfile(ctx, erin.ID, ProfileUpdate{Username: ptr("erin b")})
	require.NoError(t, err)
	assert.Equal(t, "erin b", p.Username)
	assert.False(t, f.store.Has(cache.PostKey(post.ID)))
	assert.False(t, f.store.Has(cache.PostListKey))

	view, err := f.postSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin b", view.Author.Username)
}
