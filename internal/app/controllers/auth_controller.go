package controllers

import (
	"net/http"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/app/services"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CookieConfig controls the auth cookie set on login.
type CookieConfig struct {
	Domain string
	Secure bool
}

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	cookie      CookieConfig
	logger      zerolog.Logger
}

func NewAuthController(authService *services.AuthService, cookie CookieConfig, logger zerolog.Logger) *AuthController {
	return &AuthController{authService: authService, cookie: cookie, logger: logger}
}

func (c *AuthController) setAuthCookie(ctx *gin.Context, token string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.AuthCookieName, token, maxAge, "/", c.cookie.Domain, c.cookie.Secure, true)
}

// Signup handles user registration
// @Summary Register a new user
// @Description Creates a user and its profile.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "User registration information"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Username or email already exists"
// @Router /auth/signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(ctx, &req) {
		c.logger.Debug().Msg("Invalid signup payload")
		return
	}

	user, err := c.authService.Signup(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Signup failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewUserResponse(user)))
}

// Login handles user login
// @Summary User login
// @Description Authenticates with username and password, returns tokens and sets the auth cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account disabled"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setAuthCookie(ctx, resp.Token.AccessToken, int(resp.Token.ExpiresIn))
	c.logger.Info().Int64("userId", resp.User.ID).Msg("User logged in")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Rotates the refresh token and issues a new access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setAuthCookie(ctx, resp.Token.AccessToken, int(resp.Token.ExpiresIn))
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Logout godoc
// @Summary Log out
// @Description Revokes the given refresh token, or all of the caller's tokens, and clears the auth cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.LogoutRequest
	if ctx.Request.ContentLength > 0 && !bindJSON(ctx, &req) {
		return
	}

	userID := middleware.UserIDFromContext(ctx)
	if err := c.authService.Logout(ctx.Request.Context(), userID, req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setAuthCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Logged out"}))
}

// RequestPasswordReset godoc
// @Summary Request a password reset email
// @Description Always succeeds so that registered addresses cannot be discovered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetRequest true "Account email"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Router /auth/password/reset [post]
func (c *AuthController) RequestPasswordReset(ctx *gin.Context) {
	var req dto.PasswordResetRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.authService.RequestPasswordReset(ctx.Request.Context(), req.Email); err != nil {
		c.logger.Error().Err(err).Msg("Password reset request failed")
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{
		Message: "If the address is registered, a reset link has been sent.",
	}))
}

// ConfirmPasswordReset godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetConfirmRequest true "Token and new password"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid, expired or used token"
// @Router /auth/password/reset/confirm [post]
func (c *AuthController) ConfirmPasswordReset(ctx *gin.Context) {
	var req dto.PasswordResetConfirmRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.authService.ConfirmPasswordReset(ctx.Request.Context(), req.Token, req.NewPassword); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MessageResponse{Message: "Password has been reset"}))
}
