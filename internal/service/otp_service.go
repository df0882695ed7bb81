package service

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/mail"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/otp"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

const invalidOTPMessage = "Invalid or expired OTP."

// OTPService sends and verifies registration codes.
type OTPService struct {
	users  repository.UserRepository
	codes  otp.Store
	mailer mail.Mailer
	ttl    time.Duration
}

func NewOTPService(users repository.UserRepository, codes otp.Store, mailer mail.Mailer, ttl time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = otp.DefaultTTL
	}
	return &OTPService{users: users, codes: codes, mailer: mailer, ttl: ttl}
}

// SendOTP stores a fresh code for email, then mails it. The code is stored
// before sending, so a failed send leaves it valid until it expires.
func (s *OTPService) SendOTP(ctx context.Context, email string) error {
	ctx, span := observability.StartSpan(ctx, "otp.send")
	var err error
	defer func() { span.End(err) }()

	if verr := validation.ValidateEmail(email); verr != nil {
		err = models.NewFieldValidationError(map[string][]string{"email": {verr.Error()}})
		return err
	}
	taken, lookupErr := s.users.EmailTaken(ctx, email, 0)
	if lookupErr != nil {
		err = lookupErr
		return err
	}
	if taken {
		err = models.NewConflictError("Email is already registered.")
		return err
	}

	code, genErr := otp.Generate()
	if genErr != nil {
		err = models.NewInternalError(genErr)
		return err
	}
	if putErr := s.codes.Put(ctx, email, code, s.ttl); putErr != nil {
		err = models.NewInternalError(putErr)
		return err
	}
	observability.OTPEvents.WithLabelValues("issued").Inc()

	if sendErr := s.mailer.Send(ctx, mail.OTPMessage(email, code)); sendErr != nil {
		middleware.Logger.ErrorContext(ctx, "failed to send OTP email", slog.String("error", sendErr.Error()))
		err = models.NewUpstreamError("Failed to send OTP. Please try again later.", sendErr)
		return err
	}
	return nil
}

// VerifyOTP consumes the code if it matches exactly. Wrong, expired and
// missing codes are indistinguishable to the caller.
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) error {
	ok, err := s.codes.Consume(ctx, email, code)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		observability.OTPEvents.WithLabelValues("rejected").Inc()
		return models.NewValidationError(invalidOTPMessage)
	}
	observability.OTPEvents.WithLabelValues("verified").Inc()

	if err := s.codes.MarkVerified(ctx, email, otp.VerifiedTTL); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
