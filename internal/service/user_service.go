// Package service holds the application's business rules: identity, follows,
// posts and comments, one-time codes and password resets.
package service

import (
	"context"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/otp"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type UserService struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	posts     repository.PostRepository
	cache     *cache.Cache
	passwords *Passwords
	otps      otp.Store
	flags     *featureflags.Manager
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the editable profile fields; nil means "leave unchanged".
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Image    *string `json:"image"`
	AboutMe  *string `json:"about_me"`
}

// ProfileUpdateFields is the allow-list for ProfileUpdate bodies.
var ProfileUpdateFields = []string{"username", "email", "image", "about_me"}

func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	posts repository.PostRepository,
	c *cache.Cache,
	passwords *Passwords,
	otps otp.Store,
	flags *featureflags.Manager,
) *UserService {
	return &UserService{
		users:     users,
		follows:   follows,
		posts:     posts,
		cache:     c,
		passwords: passwords,
		otps:      otps,
		flags:     flags,
	}
}

// Register validates and creates an account. Field errors are collected in a
// fixed order: username pattern, password policy, email syntax, then email and
// username uniqueness.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	ctx, span := observability.StartSpan(ctx, "user.register")
	var err error
	defer func() { span.End(err) }()

	errs := validation.Errors{}
	errs.AddErr("username", validation.ValidateUsername(in.Username))
	for _, issue := range validation.PasswordIssues(in.Password) {
		errs.Add("password", issue)
	}
	emailErr := validation.ValidateEmail(in.Email)
	errs.AddErr("email", emailErr)

	if emailErr == nil {
		taken, lookupErr := s.users.EmailTaken(ctx, in.Email, 0)
		if lookupErr != nil {
			err = lookupErr
			return nil, err
		}
		if taken {
			errs.Add("email", "A user with that email already exists.")
		}
	}
	if _, ok := errs["username"]; !ok {
		taken, lookupErr := s.users.UsernameTaken(ctx, in.Username, 0)
		if lookupErr != nil {
			err = lookupErr
			return nil, err
		}
		if taken {
			errs.Add("username", "A user with that username already exists.")
		}
	}
	if !errs.Empty() {
		err = models.NewFieldValidationError(errs)
		return nil, err
	}

	hash, hashErr := s.passwords.Hash(in.Password)
	if hashErr != nil {
		err = models.NewInternalError(hashErr)
		return nil, err
	}

	// The marker is taken before the insert so two registrations cannot share it,
	// and handed back if the insert fails.
	requireOTP := s.flags.On(featureflags.RegistrationOTP)
	if requireOTP {
		verified, verr := s.otps.ConsumeVerified(ctx, in.Email)
		if verr != nil {
			err = models.NewInternalError(verr)
			return nil, err
		}
		if !verified {
			err = models.NewFieldValidationError(map[string][]string{
				"email": {"Email address has not been verified."},
			})
			return nil, err
		}
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Image:    models.DefaultAvatarURL(in.Username),
		AboutMe:  models.DefaultAboutMe,
	}
	if err = s.users.Create(ctx, user); err != nil {
		if requireOTP {
			if rerr := s.otps.MarkVerified(ctx, in.Email, otp.VerifiedTTL); rerr != nil {
				middleware.Logger.WarnContext(ctx, "could not restore email verification",
					slog.String("error", rerr.Error()))
			}
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords produce
// the same error and take about the same time.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.passwords.Burn(password)
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !s.passwords.Matches(user.Password, password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetUser loads the account row, uncached.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetOwnProfile returns the caller's profile snapshot.
func (s *UserService) GetOwnProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.profile(ctx, userID)
}

// GetPublicProfile returns targetID's profile as seen by viewerID (0 for anonymous).
// The follow flag is computed per request and never cached.
func (s *UserService) GetPublicProfile(ctx context.Context, viewerID, targetID uint) (*models.PublicProfile, error) {
	p, err := s.profile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	out := &models.PublicProfile{Profile: *p}
	if viewerID != 0 && viewerID != targetID {
		following, err := s.follows.Exists(ctx, viewerID, targetID)
		if err != nil {
			return nil, err
		}
		out.IsFollowing = following
	}
	return out, nil
}

func (s *UserService) profile(ctx context.Context, userID uint) (*models.Profile, error) {
	var p models.Profile
	err := s.cache.Aside(ctx, cache.ProfileKey(userID), &p, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		count, err := s.follows.CountFollowers(ctx, userID)
		if err != nil {
			return err
		}
		followers, err := s.follows.ListFollowerUsernames(ctx, userID)
		if err != nil {
			return err
		}
		p = models.Profile{
			ID:             user.ID,
			Username:       user.Username,
			Email:          user.Email,
			Image:          user.Image,
			AboutMe:        user.AboutMe,
			DateJoined:     user.CreatedAt,
			FollowersCount: count,
			Followers:      followers,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile validates every supplied field before assigning any of them.
// Posts embed an author summary, so the author's post snapshots are dropped too.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	errs := validation.Errors{}
	if in.Username != nil {
		if verr := validation.ValidateUsername(*in.Username); verr != nil {
			errs.AddErr("username", verr)
		} else if taken, err := s.users.UsernameTaken(ctx, *in.Username, userID); err != nil {
			return nil, err
		} else if taken {
			errs.Add("username", "A user with that username already exists.")
		}
	}
	if in.Email != nil {
		if verr := validation.ValidateEmail(*in.Email); verr != nil {
			errs.AddErr("email", verr)
		} else if taken, err := s.users.EmailTaken(ctx, *in.Email, userID); err != nil {
			return nil, err
		} else if taken {
			errs.Add("email", "A user with that email already exists.")
		}
	}
	if in.Image != nil {
		errs.AddErr("image", validation.ValidateImageURL(*in.Image))
	}
	if in.AboutMe != nil {
		errs.AddErr("about_me", validation.ValidateAboutMe(*in.AboutMe))
	}
	if !errs.Empty() {
		return nil, models.NewFieldValidationError(errs)
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Image != nil {
		user.Image = *in.Image
	}
	if in.AboutMe != nil {
		user.AboutMe = *in.AboutMe
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	keys := []string{cache.ProfileKey(userID), cache.PostListKey}
	postIDs, err := s.posts.IDsByAuthor(ctx, userID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "could not list author posts for invalidation",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
	keys = append(keys, cache.PostKeys(postIDs)...)
	// Follower lists in other profiles carry this username.
	if in.Username != nil {
		followeeIDs, err := s.follows.ListFolloweeIDs(ctx, userID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "could not list followees for invalidation",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		}
		for _, id := range followeeIDs {
			keys = append(keys, cache.ProfileKey(id))
		}
	}
	s.cache.Invalidate(ctx, keys...)

	return s.profile(ctx, userID)
}
