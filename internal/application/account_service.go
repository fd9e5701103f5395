package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/pkg/mailer"
	"github.com/oksasatya/go-credential-service/pkg/mailer/templates"
)

// AccountService sequences registration, verification, sign-in and password
// reset over the credential store, the OTP service and the notifier.
//
// Identity state moves PendingVerification -> Verified through VerifyOTP. A
// reset is pending while a reset_password code is live for the email.
type AccountService struct {
	Store         CredentialStore
	OTP           *OTPService
	Notifier      mailer.Notifier
	Composer      *templates.Composer
	NotifyTimeout time.Duration
	Audit         *Auditor
	Logger        *logrus.Logger
}

func NewAccountService(store CredentialStore, otp *OTPService, notifier mailer.Notifier, composer *templates.Composer, notifyTimeout time.Duration, audit *Auditor, logger *logrus.Logger) *AccountService {
	return &AccountService{
		Store:         store,
		OTP:           otp,
		Notifier:      notifier,
		Composer:      composer,
		NotifyTimeout: notifyTimeout,
		Audit:         audit,
		Logger:        logger,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an unverified identity and mails it a verify_email code.
// Delivery failures do not fail registration.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) error {
	if _, err := s.Store.FindByEmail(ctx, in.Email); err == nil {
		return conflictFor("email")
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, err := s.Store.FindByUsername(ctx, in.Username); err == nil {
		return conflictFor("username")
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	u := &entity.User{Username: in.Username, Email: in.Email}
	if err := s.Store.Create(ctx, u, in.Password); err != nil {
		return err
	}
	s.Audit.Record(ctx, AuditRegister, u, "", nil)

	code, err := s.OTP.Issue(ctx, u.Email, entity.OTPPurposeVerifyEmail)
	if err != nil {
		// The identity exists; the user can ask for a new code.
		s.logger().WithError(err).WithField("user_id", u.ID).Error("issue verification otp failed")
		return nil
	}
	s.sendVerification(ctx, u, code)
	return nil
}

// VerifyOTP consumes a verify_email code and marks the identity verified.
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) error {
	if !s.OTP.Validate(ctx, email, entity.OTPPurposeVerifyEmail, code) {
		s.Audit.Record(ctx, AuditVerifyReject, nil, email, nil)
		return ErrInvalidOTP
	}
	u, err := s.Store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		s.logger().WithError(err).Error("lookup identity for verification failed")
		return ErrVerificationFailed
	}
	if err := s.Store.MarkEmailVerified(ctx, u); err != nil {
		s.logger().WithError(err).WithField("user_id", u.ID).Error("mark email verified failed")
		return ErrVerificationFailed
	}
	s.Audit.Record(ctx, AuditVerifyConfirm, u, "", nil)
	return nil
}

// ResendVerification replaces the pending verify_email code with a new one.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.Audit.Record(ctx, AuditVerifyResendUnknown, nil, email, nil)
		}
		return err
	}
	if u.IsVerified {
		return &ConflictError{Field: "email", Message: "email already verified"}
	}
	code, err := s.OTP.Issue(ctx, u.Email, entity.OTPPurposeVerifyEmail)
	if err != nil {
		return err
	}
	s.Audit.Record(ctx, AuditVerifyResend, u, "", nil)
	s.sendVerification(ctx, u, code)
	return nil
}

// Login delegates to the credential store sign-in.
func (s *AccountService) Login(ctx context.Context, username, password string, rememberMe bool) (*SignInResult, error) {
	res, err := s.Store.PasswordSignIn(ctx, username, password, rememberMe)
	if err != nil {
		s.Audit.Record(ctx, AuditLoginFailure, nil, "", map[string]any{"username": username})
		return nil, err
	}
	s.Audit.Record(ctx, AuditLoginSuccess, res.User, "", map[string]any{"remember_me": rememberMe})
	return res, nil
}

// ForgotPassword mails a reset_password code to a known email.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.Audit.Record(ctx, AuditResetInitUnknown, nil, email, nil)
		}
		return err
	}
	code, err := s.OTP.Issue(ctx, u.Email, entity.OTPPurposeResetPassword)
	if err != nil {
		return err
	}
	s.Audit.Record(ctx, AuditResetInitIssue, u, "", nil)

	msg, err := s.Composer.ResetPassword(u.Username, u.Email, code, s.OTP.TTL)
	if err != nil {
		s.deliveryFailed(ctx, u, entity.OTPPurposeResetPassword, err)
		return nil
	}
	s.deliver(ctx, u, entity.OTPPurposeResetPassword, msg)
	return nil
}

// ResetPassword spends a reset_password code and sets newPassword. A failure
// after the code is spent leaves the user to start over with ForgotPassword.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	// Reject a bad password before the code is spent.
	if err := s.Store.ValidatePassword(newPassword); err != nil {
		return err
	}
	if !s.OTP.Validate(ctx, email, entity.OTPPurposeResetPassword, code) {
		s.Audit.Record(ctx, AuditResetReject, nil, email, nil)
		return ErrInvalidOTP
	}

	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		s.logger().WithError(err).Warn("lookup identity for reset failed")
		return ErrResetFailed
	}
	token, err := s.Store.GeneratePasswordResetToken(ctx, u)
	if err != nil {
		s.logger().WithError(err).WithField("user_id", u.ID).Error("generate reset token failed")
		s.Audit.Record(ctx, AuditResetFailed, u, "", nil)
		return ErrResetFailed
	}
	if err := s.Store.ResetPassword(ctx, u, token, newPassword); err != nil {
		s.logger().WithError(err).WithField("user_id", u.ID).Error("reset password failed")
		s.Audit.Record(ctx, AuditResetFailed, u, "", nil)
		return ErrResetFailed
	}
	s.Audit.Record(ctx, AuditResetConfirm, u, "", nil)
	return nil
}

func (s *AccountService) sendVerification(ctx context.Context, u *entity.User, code string) {
	msg, err := s.Composer.VerifyEmail(u.Username, u.Email, code, s.OTP.TTL)
	if err != nil {
		s.deliveryFailed(ctx, u, entity.OTPPurposeVerifyEmail, err)
		return
	}
	s.deliver(ctx, u, entity.OTPPurposeVerifyEmail, msg)
}

// deliver sends msg within NotifyTimeout. The request's cancellation does not
// abort a send that has started.
func (s *AccountService) deliver(ctx context.Context, u *entity.User, purpose entity.OTPPurpose, msg mailer.Message) {
	c := context.WithoutCancel(ctx)
	if s.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		c, cancel = context.WithTimeout(c, s.NotifyTimeout)
		defer cancel()
	}
	if err := s.Notifier.Send(c, msg); err != nil {
		s.deliveryFailed(ctx, u, purpose, err)
	}
}

func (s *AccountService) deliveryFailed(ctx context.Context, u *entity.User, purpose entity.OTPPurpose, err error) {
	derr := &DeliveryError{To: u.Email, Purpose: purpose, Err: err}
	otpDeliveryFailure.Add(string(purpose), 1)
	s.logger().WithError(derr).WithFields(logrus.Fields{"user_id": u.ID, "purpose": purpose}).Warn("otp delivery failed")
	s.Audit.Record(ctx, AuditDeliveryFailed, u, "", map[string]any{"purpose": string(purpose)})
}

func (s *AccountService) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}
