package application

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-credential-service/config"
	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/infrastructure/memory"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
	"github.com/oksasatya/go-credential-service/pkg/mailer"
	"github.com/oksasatya/go-credential-service/pkg/mailer/templates"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func init() {
	helpers.BcryptCost = bcrypt.MinCost
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg mailer.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// lastCode extracts the passcode from the latest message sent to email.
func (n *recordingNotifier) lastCode(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].To == email {
			code := codePattern.FindString(n.sent[i].Text)
			require.NotEmpty(t, code, "no code in message")
			return code
		}
	}
	t.Fatalf("no message sent to %s", email)
	return ""
}

type blockingNotifier struct{}

func (blockingNotifier) Send(ctx context.Context, _ mailer.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) Insert(_ context.Context, ev *entity.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, ev.Action)
	return nil
}

func (a *recordingAudit) has(action string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, x := range a.actions {
		if x == action {
			return true
		}
	}
	return false
}

type failingOTPRepo struct{}

func (failingOTPRepo) Save(context.Context, *entity.OTP) error { return errors.New("store down") }
func (failingOTPRepo) Consume(context.Context, string, entity.OTPPurpose, string, time.Time) (bool, error) {
	return false, errors.New("store down")
}

type testEnv struct {
	svc      *AccountService
	users    *memory.UserRepository
	otps     *memory.OTPRepository
	identity *IdentityManager
	notifier *recordingNotifier
	audit    *recordingAudit
}

func newTestJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("access", "reset", time.Hour, 24*time.Hour, 15*time.Minute)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := helpers.NewDiscardLogger()
	users := memory.NewUserRepository()
	otps := memory.NewOTPRepository()
	identity := NewIdentityManager(users, newTestJWT(), false)
	notifier := &recordingNotifier{}
	audit := &recordingAudit{}
	svc := NewAccountService(
		identity,
		NewOTPService(otps, 10*time.Minute, logger),
		notifier,
		templates.NewComposer(&config.Config{AppName: "test", CompanyName: "LoginApp"}),
		time.Second,
		NewAuditor(audit, logger),
		logger,
	)
	return &testEnv{svc: svc, users: users, otps: otps, identity: identity, notifier: notifier, audit: audit}
}

func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	require.NoError(t, e.svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password}))
}
