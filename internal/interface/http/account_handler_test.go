package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-credential-service/config"
	"github.com/oksasatya/go-credential-service/internal/application"
	"github.com/oksasatya/go-credential-service/internal/infrastructure/memory"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
	"github.com/oksasatya/go-credential-service/pkg/mailer"
	"github.com/oksasatya/go-credential-service/pkg/mailer/templates"
	"github.com/oksasatya/go-credential-service/pkg/validation"
)

type inbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (i *inbox) Send(_ context.Context, msg mailer.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, msg)
	return nil
}

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

func (i *inbox) code(t *testing.T) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	require.NotEmpty(t, i.msgs)
	code := sixDigits.FindString(i.msgs[len(i.msgs)-1].Text)
	require.NotEmpty(t, code)
	return code
}

func newTestRouter(t *testing.T) (*gin.Engine, *inbox) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := helpers.NewDiscardLogger()
	jwt := helpers.NewJWTManager("access", "reset", time.Hour, 24*time.Hour, 15*time.Minute)
	box := &inbox{}
	svc := application.NewAccountService(
		application.NewIdentityManager(memory.NewUserRepository(), jwt, false),
		application.NewOTPService(memory.NewOTPRepository(), 10*time.Minute, logger),
		box,
		templates.NewComposer(&config.Config{AppName: "test"}),
		time.Second,
		nil,
		logger,
	)
	h := NewAccountHandler(svc, helpers.NewCookie("localhost", false), logger)

	r := gin.New()
	g := r.Group("/api/account")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/reset-password", h.ResetPassword)
	g.POST("/verify-otp", h.VerifyOTP)
	g.POST("/resend-verification", h.ResendVerification)
	return r, box
}

type envelope struct {
	Status  int            `json:"status"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Error   map[string]any `json:"error"`
}

func post(t *testing.T, r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/api/account"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

const strongPassword = "Passw0rd!"

func TestAccountHandler_RegisterVerifyLogin(t *testing.T) {
	r, box := newTestRouter(t)

	w, env := post(t, r, "/register", gin.H{"email": "a@x.com", "username": "alice", "password": strongPassword})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "please check your mail to verify your account", env.Message)

	w, env = post(t, r, "/verify-otp", gin.H{"email": "a@x.com", "otp": "000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid or expired OTP", env.Message)

	w, env = post(t, r, "/verify-otp", gin.H{"email": "a@x.com", "otp": box.code(t)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "verified", env.Message)

	w, env = post(t, r, "/login", gin.H{"username": "alice", "password": strongPassword, "remember_me": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "login successful", env.Message)
	assert.Equal(t, true, env.Data["is_verified"])
	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "access_token=")
	assert.Contains(t, cookie, "Max-Age=")
	assert.Contains(t, cookie, "HttpOnly")
}

func TestAccountHandler_SessionCookieWithoutRememberMe(t *testing.T) {
	r, _ := newTestRouter(t)
	post(t, r, "/register", gin.H{"email": "b@x.com", "username": "bea", "password": strongPassword})

	w, _ := post(t, r, "/login", gin.H{"username": "bea", "password": strongPassword})

	require.Equal(t, http.StatusOK, w.Code)
	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "access_token=")
	assert.NotContains(t, cookie, "Max-Age=")
}

func TestAccountHandler_LoginFailure(t *testing.T) {
	r, _ := newTestRouter(t)
	post(t, r, "/register", gin.H{"email": "c@x.com", "username": "cid", "password": strongPassword})

	for _, body := range []gin.H{
		{"username": "cid", "password": "Wrong-Passw0rd"},
		{"username": "ghost", "password": strongPassword},
	} {
		w, env := post(t, r, "/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid login attempt", env.Message)
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	}
}

func TestAccountHandler_RegisterErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	post(t, r, "/register", gin.H{"email": "d@x.com", "username": "dan", "password": strongPassword})

	w, env := post(t, r, "/register", gin.H{"email": "d@x.com", "username": "dan2", "password": strongPassword})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "email")

	w, env = post(t, r, "/register", gin.H{"email": "e@x.com", "username": "eve", "password": "weak"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "password")

	w, env = post(t, r, "/register", gin.H{"email": "not-an-email", "username": "fox"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a valid email", env.Error["email"])
	assert.Equal(t, "is required", env.Error["password"])

	w, env = post(t, r, "/register", "{bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid json", env.Error["payload"])
}

func TestAccountHandler_ForgotAndReset(t *testing.T) {
	r, box := newTestRouter(t)
	post(t, r, "/register", gin.H{"email": "c@x.com", "username": "carol", "password": strongPassword})

	w, env := post(t, r, "/forgot-password", gin.H{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid email", env.Message)

	w, env = post(t, r, "/forgot-password", gin.H{"email": "c@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "please check your email for the OTP", env.Message)
	code := box.code(t)

	w, env = post(t, r, "/reset-password", gin.H{"email": "c@x.com", "otp": code, "new_password": "NewP@ss1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "password has been reset", env.Message)

	w, env = post(t, r, "/reset-password", gin.H{"email": "c@x.com", "otp": code, "new_password": "NewP@ss2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid or expired OTP", env.Message)

	w, _ = post(t, r, "/login", gin.H{"username": "carol", "password": "NewP@ss1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccountHandler_ResendVerification(t *testing.T) {
	r, box := newTestRouter(t)
	post(t, r, "/register", gin.H{"email": "g@x.com", "username": "gil", "password": strongPassword})

	w, _ := post(t, r, "/resend-verification", gin.H{"email": "g@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	post(t, r, "/verify-otp", gin.H{"email": "g@x.com", "otp": box.code(t)})

	w, env := post(t, r, "/resend-verification", gin.H{"email": "g@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already verified", env.Message)

	w, env = post(t, r, "/resend-verification", gin.H{"email": "h@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid email", env.Message)
}
