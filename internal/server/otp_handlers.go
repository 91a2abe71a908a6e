package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/glowcart-dev/glowcart/internal/auth"
	"github.com/glowcart-dev/glowcart/internal/models"
	"github.com/glowcart-dev/glowcart/internal/otp"
	"github.com/glowcart-dev/glowcart/internal/tasks"
)

// SendOTPRequest asks for a verification code to be emailed
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOTPRequest submits a received code for verification
type VerifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Code    string `json:"code" binding:"required,len=6"`
	Purpose string `json:"purpose"` // defaults to register
}

// VerifyOTPResponse confirms a verified email. The token is a short-lived
// marker the signup form carries so the email is not re-verified.
type VerifyOTPResponse struct {
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
	Purpose    string `json:"purpose"`
	EmailToken string `json:"email_token"`
}

// issueOTP creates a challenge and enqueues its delivery email
func (s *Server) issueOTP(c *gin.Context, purpose string) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Password reset codes only make sense for existing accounts
	if purpose == models.OTPPurposeResetPassword {
		var user models.User
		if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "No account with this email"})
				return
			}
			s.logger.Error().Err(err).Msg("Failed to find user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	code, verification, err := s.otpService.Issue(req.Email, purpose)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue OTP")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}

	task, err := tasks.NewSendOTPEmailTask(req.Email, code, purpose)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build OTP email task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue OTP email task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "sent",
		"purpose":    purpose,
		"expires_at": verification.ExpiresAt,
	})
}

// @Summary Send registration OTP
// @Description Email a one-time code to verify an address before signup
// @Tags email
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Send OTP request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/email/send-otp [post]
func (s *Server) sendOTP(c *gin.Context) {
	s.issueOTP(c, models.OTPPurposeRegister)
}

// @Summary Send password reset OTP
// @Description Email a one-time code for resetting a forgotten password
// @Tags email
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Send OTP request"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/email/send-otp-forget-password [post]
func (s *Server) sendPasswordResetOTP(c *gin.Context) {
	s.issueOTP(c, models.OTPPurposeResetPassword)
}

// @Summary Verify OTP
// @Description Check a one-time code and mark the email verified
// @Tags email
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify OTP request"
// @Success 200 {object} VerifyOTPResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/email/verify-otp [post]
func (s *Server) verifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = models.OTPPurposeRegister
	}

	verification, err := s.otpService.Verify(req.Email, req.Code, purpose)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No pending verification for this email"})
		case errors.Is(err, otp.ErrExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Verification code expired"})
		case errors.Is(err, otp.ErrMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect verification code"})
		default:
			s.logger.Error().Err(err).Msg("Failed to verify OTP")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	emailToken, err := auth.GenerateEmailToken(verification.Email, purpose)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate email token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, VerifyOTPResponse{
		Email:      verification.Email,
		Verified:   true,
		Purpose:    purpose,
		EmailToken: emailToken,
	})
}
