package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-service/internal/application"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
	"github.com/oksasatya/go-credential-service/pkg/response"
	"github.com/oksasatya/go-credential-service/pkg/validation"
)

const (
	msgRegistered    = "please check your mail to verify your account"
	msgLoggedIn      = "login successful"
	msgOTPSent       = "please check your email for the OTP"
	msgPasswordReset = "password has been reset"
	msgVerified      = "verified"
	msgResent        = "a new verification code has been sent"
	msgInvalidEmail  = "invalid email"
	msgInvalidLogin  = "invalid login attempt"
	msgInvalidBody   = "invalid payload"
	msgInternal      = "internal server error"
)

type AccountHandler struct {
	Service *application.AccountService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

// NewAccountHandler also registers the binding aliases its requests use.
func NewAccountHandler(svc *application.AccountService, cookies *helpers.Manager, logger *logrus.Logger) *AccountHandler {
	validation.Init()
	return &AccountHandler{Service: svc, Cookies: cookies, Logger: logger}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,mailbox"`
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,mailbox"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,mailbox"`
	OTP   string `json:"otp" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,mailbox"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// requestContext carries caller details into the audit trail.
func requestContext(c *gin.Context) context.Context {
	return application.WithRequestMeta(c.Request.Context(), application.RequestMeta{
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidBody, validation.ToDetails(err))
		return false
	}
	return true
}

// Register POST /api/account/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	err := h.Service.Register(requestContext(c), application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msgRegistered, nil)
}

// Login POST /api/account/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Service.Login(requestContext(c), req.Username, req.Password, req.RememberMe)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.SetAccess(c, res.AccessToken, res.ExpiresAt, res.Persistent)
	response.Success(c, http.StatusOK, gin.H{
		"username":    res.User.Username,
		"email":       res.User.Email,
		"is_verified": res.User.IsVerified,
	}, msgLoggedIn, nil)
}

// ForgotPassword POST /api/account/forgot-password
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Service.ForgotPassword(requestContext(c), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msgOTPSent, nil)
}

// ResetPassword POST /api/account/reset-password
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Service.ResetPassword(requestContext(c), req.Email, req.OTP, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msgPasswordReset, nil)
}

// VerifyOTP POST /api/account/verify-otp
func (h *AccountHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Service.VerifyOTP(requestContext(c), req.Email, req.OTP); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msgVerified, nil)
}

// ResendVerification POST /api/account/resend-verification
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Service.ResendVerification(requestContext(c), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msgResent, nil)
}

// fail maps service errors onto the public responses. Anything unexpected is
// logged and reported as a 500 without detail.
func (h *AccountHandler) fail(c *gin.Context, err error) {
	var verr *application.ValidationError
	var cerr *application.ConflictError
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusBadRequest, msgInvalidBody, verr.Fields)
	case errors.As(err, &cerr):
		response.Error[any](c, http.StatusBadRequest, cerr.Message, map[string]string{cerr.Field: cerr.Message})
	case errors.Is(err, application.ErrNotFound):
		response.Error[any](c, http.StatusBadRequest, msgInvalidEmail, map[string]string{"email": msgInvalidEmail})
	case errors.Is(err, application.ErrInvalidOTP),
		errors.Is(err, application.ErrResetFailed),
		errors.Is(err, application.ErrVerificationFailed):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrEmailNotVerified):
		response.Error[any](c, http.StatusUnauthorized, msgInvalidLogin, nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithFields(logrus.Fields{
				"path":       c.FullPath(),
				"request_id": c.GetString("request_id"),
			}).Error("account request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
	}
}
