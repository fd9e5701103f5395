package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	repo "github.com/oksasatya/go-credential-service/internal/domain/repository"
)

// Audit actions.
const (
	AuditRegister            = "register"
	AuditVerifyConfirm       = "verify_confirm"
	AuditVerifyReject        = "verify_reject"
	AuditVerifyResend        = "verify_resend"
	AuditLoginSuccess        = "login_success"
	AuditLoginFailure        = "login_failure"
	AuditResetInitIssue      = "reset_init_issue"
	AuditResetInitUnknown    = "reset_init_unknown"
	AuditResetConfirm        = "reset_confirm"
	AuditResetReject         = "reset_reject"
	AuditResetFailed         = "reset_failed"
	AuditDeliveryFailed      = "delivery_failed"
	AuditVerifyResendUnknown = "verify_resend_unknown"
)

// RequestMeta describes the caller of an account operation.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

func requestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}

// Auditor records account events. Write failures are logged and dropped.
type Auditor struct {
	Repo   repo.AuditRepository
	Logger *logrus.Logger
}

func NewAuditor(repo repo.AuditRepository, logger *logrus.Logger) *Auditor {
	return &Auditor{Repo: repo, Logger: logger}
}

func (a *Auditor) Record(ctx context.Context, action string, u *entity.User, email string, metadata map[string]any) {
	if a == nil || a.Repo == nil {
		return
	}
	meta := requestMetaFrom(ctx)
	ev := &entity.AuditEvent{
		Email:     email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if u != nil {
		ev.UserID = u.ID
		ev.Email = u.Email
	}
	if err := a.Repo.Insert(ctx, ev); err != nil && a.Logger != nil {
		a.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}
