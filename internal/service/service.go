// Package service implements the Authentication Service: the sole
// orchestration layer through which every higher-level handler interacts
// with credentials, verification workflows, and rate limiting.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
	"github.com/Jeffreasy/mimo-auth/internal/mailtransport"
	"github.com/Jeffreasy/mimo-auth/internal/ratelimit"
	"github.com/Jeffreasy/mimo-auth/internal/revocation"
	"github.com/Jeffreasy/mimo-auth/internal/userstore"
	"github.com/Jeffreasy/mimo-auth/internal/verification"
)

// TagCreator is an optional collaborator invoked once, best-effort, when a
// registration completes. A nil TagCreator skips the step entirely; a
// failing one is logged, never fatal to registration.
type TagCreator interface {
	CreateDefaultTags(ctx context.Context, userID string) error
}

// UserView is the public projection of a User record: never carries
// PasswordDigest.
type UserView struct {
	UserID      string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func toView(u *userstore.User) UserView {
	return UserView{
		UserID:      u.UserID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Service is the Authentication Service. It holds shared references to
// every leaf component and owns none of their internal state, per
// spec.md §3's ownership rules.
type Service struct {
	codec       *auth.Codec
	hasher      auth.PasswordHasher
	verify      *verification.Store
	revocations *revocation.Index
	mailLimiter *ratelimit.MailSendLimiter
	authLimiter *ratelimit.AuthLimiter
	users       userstore.Store
	mailer      mailtransport.Transport
	tags        TagCreator
}

// New constructs the Authentication Service. tags may be nil.
func New(
	codec *auth.Codec,
	hasher auth.PasswordHasher,
	verify *verification.Store,
	revocations *revocation.Index,
	mailLimiter *ratelimit.MailSendLimiter,
	authLimiter *ratelimit.AuthLimiter,
	users userstore.Store,
	mailer mailtransport.Transport,
	tags TagCreator,
) *Service {
	return &Service{
		codec:       codec,
		hasher:      hasher,
		verify:      verify,
		revocations: revocations,
		mailLimiter: mailLimiter,
		authLimiter: authLimiter,
		users:       users,
		mailer:      mailer,
		tags:        tags,
	}
}

// Login authenticates a user by email and password, charges the
// authentication limiter per-IP and per-user (keyed by email, since no
// user_id is known yet), and on success issues a fresh Refresh and Access
// credential pair.
func (s *Service) Login(ctx context.Context, email, password, ip string) (access, refresh string, view UserView, err error) {
	if err := s.authLimiter.Charge(ip, email); err != nil {
		return "", "", UserView{}, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", "", UserView{}, err
	}
	if u == nil || !u.Active {
		return "", "", UserView{}, auth.New(auth.Unauthenticated, "invalid email or password")
	}
	if err := s.hasher.Compare(u.PasswordDigest, password); err != nil {
		return "", "", UserView{}, auth.New(auth.Unauthenticated, "invalid email or password")
	}

	access, refresh, err = s.issueSessionPair(u.UserID)
	if err != nil {
		return "", "", UserView{}, err
	}
	return access, refresh, toView(u), nil
}

// Logout revokes whichever of the two credentials decode successfully.
// Presence of invalid or missing credentials is never an error: logout is
// idempotent.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	s.revokeIfDecodable(ctx, accessToken, auth.PurposeAccess)
	s.revokeIfDecodable(ctx, refreshToken, auth.PurposeRefresh)
	return nil
}

func (s *Service) revokeIfDecodable(ctx context.Context, raw string, purpose auth.Purpose) {
	if raw == "" {
		return
	}
	claims, err := s.codec.Decode(raw, purpose)
	if err != nil {
		return
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("logout: revoking credential failed", "jti", claims.ID, "error", err)
	}
}

// Refresh validates a refresh credential and, if it is neither expired,
// malformed, nor revoked, and its owning user is active, issues a fresh
// Access credential. The refresh credential itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip string) (string, error) {
	claims, err := s.codec.Decode(refreshToken, auth.PurposeRefresh)
	if err != nil {
		return "", err
	}

	if err := s.authLimiter.Charge(ip, claims.Subject); err != nil {
		return "", err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", auth.New(auth.Unauthenticated, "credential has been revoked")
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if u == nil || !u.Active {
		return "", auth.New(auth.Unauthenticated, "account is not active")
	}

	return s.codec.Issue(auth.PurposeAccess, u.UserID, auth.DefaultRoles)
}

func (s *Service) issueSessionPair(userID string) (access, refresh string, err error) {
	refresh, err = s.codec.Issue(auth.PurposeRefresh, userID, nil)
	if err != nil {
		return "", "", err
	}
	access, err = s.codec.Issue(auth.PurposeAccess, userID, auth.DefaultRoles)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// StartRegistration begins the registration workflow: validates the email,
// charges the mail-send limiter, asserts no active user already owns this
// address, generates and stores a code, and asks the mail transport to
// deliver it.
func (s *Service) StartRegistration(ctx context.Context, email, ip string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.mailLimiter.Charge(email, ip); err != nil {
		return err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.Active {
		return auth.New(auth.ValidationError, "an account with this email already exists")
	}

	code, err := generateCode()
	if err != nil {
		return auth.Wrap(auth.Internal, "generating verification code", err)
	}
	s.verify.PutCode(email, verification.WorkflowRegistration, code)

	if err := s.mailer.SendVerification(ctx, email, code); err != nil {
		return err
	}
	return nil
}

// VerifyRegistrationCode checks a supplied code against the pending
// registration verification, and on success issues a Registration
// credential recorded as an intermediate token.
func (s *Service) VerifyRegistrationCode(ctx context.Context, email, code string) (string, error) {
	return s.verifyWorkflowCode(email, code, verification.WorkflowRegistration, auth.PurposeRegistration)
}

// StartPasswordReset is symmetric to StartRegistration except it requires
// an existing active user (the inverted "must exist" check).
func (s *Service) StartPasswordReset(ctx context.Context, email, ip string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.mailLimiter.Charge(email, ip); err != nil {
		return err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing == nil || !existing.Active {
		return auth.New(auth.ValidationError, "no account with this email exists")
	}

	code, err := generateCode()
	if err != nil {
		return auth.Wrap(auth.Internal, "generating verification code", err)
	}
	s.verify.PutCode(email, verification.WorkflowPasswordReset, code)

	if err := s.mailer.SendPasswordReset(ctx, email, code); err != nil {
		return err
	}
	return nil
}

// VerifyPasswordResetCode is symmetric to VerifyRegistrationCode.
func (s *Service) VerifyPasswordResetCode(ctx context.Context, email, code string) (string, error) {
	return s.verifyWorkflowCode(email, code, verification.WorkflowPasswordReset, auth.PurposePasswordReset)
}

func (s *Service) verifyWorkflowCode(email, code string, workflow verification.Workflow, purpose auth.Purpose) (string, error) {
	if err := validateCode(code); err != nil {
		return "", err
	}

	switch s.verify.CheckCode(email, workflow, code) {
	case verification.CheckMatch:
		token, err := s.codec.Issue(purpose, email, nil)
		if err != nil {
			return "", err
		}
		s.verify.PutToken(token, email)
		return token, nil
	case verification.CheckMismatch:
		return "", auth.New(auth.ValidationError, "verification code does not match")
	case verification.CheckExpired:
		return "", auth.New(auth.ValidationError, "verification code has expired")
	case verification.CheckTooManyAttempts:
		return "", auth.New(auth.ValidationError, "too many attempts; request a new code")
	default:
		return "", auth.New(auth.ValidationError, "no verification code is pending for this email")
	}
}

// CompleteRegistrationInput bundles step-3 registration fields.
type CompleteRegistrationInput struct {
	UserID      string
	Email       string
	DisplayName string
	Password    string
}

// CompleteRegistration validates the new account fields, single-use-consumes
// the Registration credential's intermediate token, creates the user, and
// issues a fresh session pair.
func (s *Service) CompleteRegistration(ctx context.Context, registrationToken string, in CompleteRegistrationInput) (access, refresh string, view UserView, err error) {
	if err := validateUserID(in.UserID); err != nil {
		return "", "", UserView{}, err
	}
	if err := validateEmail(in.Email); err != nil {
		return "", "", UserView{}, err
	}
	if err := validateDisplayName(in.DisplayName); err != nil {
		return "", "", UserView{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return "", "", UserView{}, err
	}

	claims, err := s.codec.Decode(registrationToken, auth.PurposeRegistration)
	if err != nil {
		return "", "", UserView{}, err
	}
	if claims.Subject != in.Email {
		return "", "", UserView{}, auth.New(auth.Unauthenticated, "credential does not match the supplied email")
	}

	switch s.verify.ConsumeToken(registrationToken, in.Email) {
	case verification.TokenConsumed:
		// proceed
	case verification.TokenAlreadyUsed:
		return "", "", UserView{}, auth.New(auth.ValidationError, "registration token has already been used")
	case verification.TokenExpired:
		return "", "", UserView{}, auth.New(auth.ValidationError, "registration token has expired")
	default:
		return "", "", UserView{}, auth.New(auth.ValidationError, "registration token is not valid")
	}
	defer s.verify.Invalidate(registrationToken)

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return "", "", UserView{}, err
	}
	if existing != nil && existing.Active {
		return "", "", UserView{}, auth.New(auth.ValidationError, "an account with this email already exists")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", "", UserView{}, err
	}

	u, err := s.users.Create(ctx, in.UserID, in.Email, in.DisplayName, digest)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return "", "", UserView{}, auth.New(auth.ValidationError, "an account with this email already exists")
		}
		return "", "", UserView{}, err
	}

	if s.tags != nil {
		if err := s.tags.CreateDefaultTags(ctx, u.UserID); err != nil {
			slog.Warn("complete registration: default tag creation failed", "user_id", u.UserID, "error", err)
		}
	}

	access, refresh, err = s.issueSessionPair(u.UserID)
	if err != nil {
		return "", "", UserView{}, err
	}
	return access, refresh, toView(u), nil
}

// CompletePasswordReset consumes the PasswordReset intermediate token and
// sets the new password digest for the existing user it names.
func (s *Service) CompletePasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	claims, err := s.codec.Decode(resetToken, auth.PurposePasswordReset)
	if err != nil {
		return err
	}

	switch s.verify.ConsumeToken(resetToken, claims.Subject) {
	case verification.TokenConsumed:
		// proceed
	case verification.TokenAlreadyUsed:
		return auth.New(auth.ValidationError, "reset token has already been used")
	case verification.TokenExpired:
		return auth.New(auth.ValidationError, "reset token has expired")
	default:
		return auth.New(auth.ValidationError, "reset token is not valid")
	}
	defer s.verify.Invalidate(resetToken)

	u, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if u == nil || !u.Active {
		return auth.New(auth.NotFound, "account not found")
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, u.UserID, digest)
}

// GetCurrentUser returns the public view of an active user.
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (UserView, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	if u == nil {
		return UserView{}, auth.New(auth.NotFound, "user not found")
	}
	if !u.Active {
		return UserView{}, auth.New(auth.Unauthenticated, "account is not active")
	}
	return toView(u), nil
}

// UpdateUserInput describes the optionally-present fields of a self-update.
type UpdateUserInput struct {
	Email       *string
	DisplayName *string
}

// UpdateUser validates each provided field and, on email change, asserts
// uniqueness excluding the caller's own record.
func (s *Service) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (UserView, error) {
	patch := userstore.Patch{}

	if in.Email != nil {
		if err := validateEmail(*in.Email); err != nil {
			return UserView{}, err
		}
		existing, err := s.users.FindByEmail(ctx, *in.Email)
		if err != nil {
			return UserView{}, err
		}
		if existing != nil && existing.Active && existing.UserID != userID {
			return UserView{}, auth.New(auth.ValidationError, "an account with this email already exists")
		}
		patch.Email = in.Email
	}
	if in.DisplayName != nil {
		if err := validateDisplayName(*in.DisplayName); err != nil {
			return UserView{}, err
		}
		patch.DisplayName = in.DisplayName
	}

	u, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return UserView{}, auth.New(auth.ValidationError, "an account with this email already exists")
		}
		return UserView{}, err
	}
	return toView(u), nil
}

// ChangePassword verifies the caller's current password before setting a
// new digest. An inactive account and a wrong current password both fail as
// Unauthenticated, each with its own message.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !u.Active {
		return auth.New(auth.Unauthenticated, "account is not active")
	}
	if err := s.hasher.Compare(u.PasswordDigest, oldPassword); err != nil {
		return auth.New(auth.Unauthenticated, "current password is incorrect")
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, digest)
}

// Authenticate decodes an Access credential presented by a request,
// checking the revocation index, for use by the HTTP auth middleware.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*auth.ClaimBundle, error) {
	claims, err := s.codec.Decode(accessToken, auth.PurposeAccess)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.New(auth.Unauthenticated, "credential has been revoked")
	}
	return claims, nil
}
