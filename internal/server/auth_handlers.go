package server

import (
	"log/slog"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account. Every failing field is reported.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Exchange credentials for an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} auth.TokenPair
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(pair)
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh tokens
// @Description Rotate a refresh token; the presented token is revoked
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest true "Refresh token"
// @Success 200 {object} auth.TokenPair
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	ctx := c.UserContext()

	claims, err := s.tokens.Parse(req.Refresh, auth.TokenRefresh)
	if err != nil {
		return respondError(c, err)
	}
	if s.revocations.IsRevoked(ctx, claims.ID) {
		return respondError(c, models.NewUnauthorizedError("Token has been revoked"))
	}

	userID, err := claims.UserID()
	if err != nil {
		return respondError(c, models.NewUnauthorizedError("Invalid user ID in token"))
	}
	user, err := s.userService.GetUser(ctx, userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return respondError(c, models.NewUnauthorizedError("Invalid or expired token"))
		}
		return respondError(c, err)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	s.revoke(c, claims)
	return c.JSON(pair)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke a refresh token
// @Tags auth
// @Accept json
// @Param request body refreshRequest true "Refresh token"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	claims, err := s.tokens.Parse(req.Refresh, auth.TokenRefresh)
	if err != nil {
		return respondError(c, err)
	}
	s.revoke(c, claims)

	// A still-valid access token from the same session goes too.
	if access, err := s.tokens.Parse(bearerToken(c), auth.TokenAccess); err == nil {
		s.revoke(c, access)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// revoke blacklists a token until it would have expired anyway.
func (s *Server) revoke(c *fiber.Ctx, claims *auth.Claims) {
	ttl := s.tokens.RefreshTTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.revocations.Revoke(c.UserContext(), claims.ID, ttl); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
			slog.String("jti", claims.ID), slog.String("error", err.Error()))
	}
}

// SendOTP handles POST /api/auth/otp/send
// @Summary Send OTP
// @Description Email a one-time code to an unregistered address
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Email"
// @Success 200 {object} messageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /auth/otp/send [post]
func (s *Server) SendOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.otpService.SendOTP(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: "OTP sent to your email."})
}

// VerifyOTP handles POST /api/auth/otp/verify
// @Summary Verify OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body otpRequest true "Email and code"
// @Success 200 {object} messageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/otp/verify [post]
func (s *Server) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.otpService.VerifyOTP(c.UserContext(), req.Email, req.OTP); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: "OTP verified successfully."})
}

// RequestPasswordReset handles POST /api/auth/password-reset/request
// @Summary Request password reset
// @Description Always acknowledges; mails a link only to registered addresses
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Email"
// @Success 200 {object} messageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /auth/password-reset/request [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	ack, err := s.passwordService.RequestReset(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: ack})
}

// ConfirmPasswordReset handles POST /api/auth/password-reset/confirm
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.PerformResetInput true "Email, token and new password"
// @Success 200 {object} messageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/password-reset/confirm [post]
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req service.PerformResetInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.passwordService.PerformReset(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: "Password has been reset successfully."})
}
