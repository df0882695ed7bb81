package service

import (
	"context"
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/cache"
	"inkwell/internal/mail"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// ResetRequestedMessage is returned whether or not the email belongs to a user.
const ResetRequestedMessage = "If the email exists, a password reset link will be sent."

type PasswordResetService struct {
	users       repository.UserRepository
	tokens      *auth.ResetTokens
	passwords   *Passwords
	mailer      mail.Mailer
	cache       *cache.Cache
	frontendURL string
}

type PerformResetInput struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func NewPasswordResetService(
	users repository.UserRepository,
	tokens *auth.ResetTokens,
	passwords *Passwords,
	mailer mail.Mailer,
	c *cache.Cache,
	frontendURL string,
) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		mailer:      mailer,
		cache:       c,
		frontendURL: frontendURL,
	}
}

// RequestReset mails a reset link when email belongs to a user. The returned
// acknowledgement is identical either way; only a send failure is reported.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (string, error) {
	ctx, span := observability.StartSpan(ctx, "password_reset.request")
	var err error
	defer func() { span.End(err) }()

	if verr := validation.ValidateEmail(email); verr != nil {
		err = models.NewFieldValidationError(map[string][]string{"email": {verr.Error()}})
		return "", err
	}
	user, lookupErr := s.users.GetByEmail(ctx, email)
	if lookupErr != nil {
		err = lookupErr
		return "", err
	}
	if user == nil {
		return ResetRequestedMessage, nil
	}

	token, makeErr := s.tokens.Make(user)
	if makeErr != nil {
		err = models.NewInternalError(makeErr)
		return "", err
	}
	link := mail.ResetLink(s.frontendURL, token, user.Email)
	if sendErr := s.mailer.Send(ctx, mail.PasswordResetMessage(user.Email, user.Username, link)); sendErr != nil {
		middleware.Logger.ErrorContext(ctx, "failed to send password reset email", slog.String("error", sendErr.Error()))
		err = models.NewUpstreamError("Failed to send email. Please try again later.", sendErr)
		return "", err
	}
	return ResetRequestedMessage, nil
}

// PerformReset checks the password policy, then the user, then the token.
// The new hash changes the token fingerprint, so a used link stops working.
func (s *PasswordResetService) PerformReset(ctx context.Context, in PerformResetInput) error {
	if in.Email == "" {
		return models.NewValidationError("Email is required.")
	}
	if issues := validation.PasswordIssues(in.NewPassword); len(issues) > 0 {
		return models.NewFieldValidationError(map[string][]string{"new_password": issues})
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewValidationError("Invalid email.")
	}
	if !s.tokens.Check(user, in.Token) {
		return models.NewValidationError("Invalid or expired token.")
	}

	hash, err := s.passwords.Hash(in.NewPassword)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.ProfileKey(user.ID))
	return nil
}
