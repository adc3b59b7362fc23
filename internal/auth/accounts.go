package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
	"github.com/ryanbastic/pixel-mosaic/internal/storage"
)

var (
	// ErrInvalidInput is returned for a malformed email or unacceptable password.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmailTaken is returned by Signup when the email is already registered.
	ErrEmailTaken = storage.ErrEmailTaken
	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is returned by Login before the email is verified.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrTokenInvalid is returned for an unknown, used, or expired capability token.
	ErrTokenInvalid = errors.New("token is invalid or expired")
)

// Mailer delivers capability tokens to users.
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// OwnershipClearer releases every pixel a user owns.
type OwnershipClearer interface {
	ClearOwnerForUser(ctx context.Context, ownerID string) (int64, error)
}

// Config controls account policy.
type Config struct {
	VerifyTokenTTL  time.Duration
	ResetTokenTTL   time.Duration
	RequireVerified bool
}

// Accounts implements signup, login, verification, password reset, and
// account deletion on top of a UserStore.
type Accounts struct {
	users    storage.UserStore
	pixels   OwnershipClearer
	sessions *Sessions
	mailer   Mailer
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewAccounts creates an Accounts service.
func NewAccounts(users storage.UserStore, pixels OwnershipClearer, sessions *Sessions, mailer Mailer, cfg Config, logger *slog.Logger) *Accounts {
	return &Accounts{
		users:    users,
		pixels:   pixels,
		sessions: sessions,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return email, nil
}

// Signup registers a new, unverified account and mails a verification token.
// A mail failure is logged; the account is still created.
func (a *Accounts) Signup(ctx context.Context, email, password string) (uuid.UUID, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return uuid.Nil, err
	}
	if err := validatePassword(password); err != nil {
		return uuid.Nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}

	u := storage.User{ID: uuid.New(), Email: email, PasswordHash: hash, CreatedAt: a.now()}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return uuid.Nil, err
	}
	a.logger.Info("user signed up", "user_id", u.ID)

	if err := a.sendVerification(ctx, u); err != nil {
		a.logger.Error("send verification", "user_id", u.ID, "error", err)
	}
	return u.ID, nil
}

// Login checks credentials and returns a signed session token.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	u, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if !checkPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	if a.cfg.RequireVerified && !u.Verified {
		return "", ErrEmailNotVerified
	}
	return a.sessions.Issue(u.ID.String(), u.Email)
}

// Authenticate resolves an Authorization header to the id of an existing user.
func (a *Accounts) Authenticate(ctx context.Context, header string) (string, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return "", err
	}
	claims, err := a.sessions.Verify(raw)
	if err != nil {
		return "", err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: malformed subject", pixel.ErrUnauthenticated)
	}
	if _, err := a.users.GetUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", fmt.Errorf("%w: account no longer exists", pixel.ErrUnauthenticated)
		}
		return "", fmt.Errorf("authenticate: %w", err)
	}
	return id.String(), nil
}

// OwnerExists reports whether ownerID names a stored account. Malformed ids
// name no account.
func (a *Accounts) OwnerExists(ctx context.Context, ownerID string) (bool, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return false, nil
	}
	if _, err := a.users.GetUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up owner: %w", err)
	}
	return true, nil
}

// VerifyEmail redeems a verification token.
func (a *Accounts) VerifyEmail(ctx context.Context, token string) error {
	tok, err := a.consume(ctx, token, storage.PurposeVerifyEmail)
	if err != nil {
		return err
	}
	if err := a.users.SetVerified(ctx, tok.Subject); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("verify email: %w", err)
	}
	return nil
}

// ResendVerification mails a fresh verification token to an unverified
// account. Unknown or already verified addresses are silently accepted.
func (a *Accounts) ResendVerification(ctx context.Context, email string) error {
	u, err := a.lookupForMail(ctx, email)
	if err != nil || u == nil || u.Verified {
		return err
	}
	if err := a.sendVerification(ctx, *u); err != nil {
		a.logger.Error("resend verification", "user_id", u.ID, "error", err)
	}
	return nil
}

// RequestPasswordReset mails a reset token if the account exists. The result
// never reveals whether it does.
func (a *Accounts) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := a.lookupForMail(ctx, email)
	if err != nil || u == nil {
		return err
	}
	raw, err := a.issueToken(ctx, u.ID, storage.PurposeResetPassword, a.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}
	if err := a.mailer.SendPasswordReset(ctx, u.Email, raw); err != nil {
		a.logger.Error("send password reset", "user_id", u.ID, "error", err)
	}
	return nil
}

// ResetPassword redeems a reset token and replaces the password. Completing a
// reset also proves ownership of the email, so the account becomes verified.
func (a *Accounts) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	tok, err := a.consume(ctx, token, storage.PurposeResetPassword)
	if err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := a.users.SetPasswordHash(ctx, tok.Subject, hash); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if err := a.users.SetVerified(ctx, tok.Subject); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	a.logger.Info("password reset", "user_id", tok.Subject)
	return nil
}

// DeleteAccount releases the user's pixels and removes the account. Pixels
// are kept with their colors; only ownership is cleared.
func (a *Accounts) DeleteAccount(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: malformed user id", pixel.ErrUnauthenticated)
	}
	released, err := a.pixels.ClearOwnerForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("release pixels: %w", err)
	}
	if err := a.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	a.logger.Info("account deleted", "user_id", userID, "pixels_released", released)
	return nil
}

func (a *Accounts) lookupForMail(ctx context.Context, email string) (*storage.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	u, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}
	return u, nil
}

func (a *Accounts) sendVerification(ctx context.Context, u storage.User) error {
	raw, err := a.issueToken(ctx, u.ID, storage.PurposeVerifyEmail, a.cfg.VerifyTokenTTL)
	if err != nil {
		return err
	}
	return a.mailer.SendVerification(ctx, u.Email, raw)
}

func (a *Accounts) issueToken(ctx context.Context, subject uuid.UUID, purpose storage.TokenPurpose, ttl time.Duration) (string, error) {
	raw, hash, err := newCapabilityToken()
	if err != nil {
		return "", err
	}
	tok := storage.CapabilityToken{
		Hash:      hash,
		Purpose:   purpose,
		Subject:   subject,
		ExpiresAt: a.now().Add(ttl),
	}
	if err := a.users.SaveToken(ctx, tok); err != nil {
		return "", fmt.Errorf("save %s token: %w", purpose, err)
	}
	return raw, nil
}

// consume redeems a capability token. The token is spent even when it has
// expired.
func (a *Accounts) consume(ctx context.Context, raw string, purpose storage.TokenPurpose) (*storage.CapabilityToken, error) {
	if raw == "" {
		return nil, ErrTokenInvalid
	}
	tok, err := a.users.ConsumeToken(ctx, hashCapabilityToken(raw), purpose)
	if errors.Is(err, storage.ErrTokenNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("consume %s token: %w", purpose, err)
	}
	if !a.now().Before(tok.ExpiresAt) {
		return nil, ErrTokenInvalid
	}
	return tok, nil
}
