package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// --- Huma Input/Output types ---

type CredentialsBody struct {
	Email    string `json:"email" maxLength:"254"`
	Password string `json:"password" maxLength:"128"`
}

type CredentialsInput struct {
	Body CredentialsBody
}

type LoginResponse struct {
	Token string `json:"token" doc:"Bearer session token"`
}

type LoginOutput struct {
	Body LoginResponse
}

type EmailBody struct {
	Email string `json:"email" maxLength:"254"`
}

type EmailInput struct {
	Body EmailBody
}

type TokenBody struct {
	Token string `json:"token" doc:"Token from the verification mail"`
}

type TokenInput struct {
	Body TokenBody
}

type ResetPasswordBody struct {
	Token    string `json:"token" doc:"Token from the reset mail"`
	Password string `json:"password" maxLength:"128"`
}

type ResetPasswordInput struct {
	Body ResetPasswordBody
}

type AuthorizedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer session token"`
}

// --- Handler ---

type AccountHandler struct {
	accounts Accounts
	logger   *slog.Logger
}

func NewAccountHandler(accounts Accounts, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

func registerAccountRoutes(api huma.API, h *AccountHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/signup",
		Summary:       "Create an account",
		Tags:          []string{"accounts"},
		DefaultStatus: http.StatusCreated,
	}, h.Signup)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Exchange credentials for a session token",
		Tags:        []string{"accounts"},
	}, h.Login)

	huma.Register(api, huma.Operation{
		OperationID: "verify-email",
		Method:      http.MethodPost,
		Path:        "/verify-email",
		Summary:     "Redeem an email verification token",
		Tags:        []string{"accounts"},
	}, h.VerifyEmail)

	huma.Register(api, huma.Operation{
		OperationID: "resend-verification",
		Method:      http.MethodPost,
		Path:        "/resend-verification",
		Summary:     "Send a new verification mail",
		Tags:        []string{"accounts"},
	}, h.ResendVerification)

	huma.Register(api, huma.Operation{
		OperationID: "forgot-password",
		Method:      http.MethodPost,
		Path:        "/forgot-password",
		Summary:     "Mail a password reset token",
		Tags:        []string{"accounts"},
	}, h.ForgotPassword)

	huma.Register(api, huma.Operation{
		OperationID: "reset-password",
		Method:      http.MethodPost,
		Path:        "/reset-password",
		Summary:     "Redeem a password reset token",
		Tags:        []string{"accounts"},
	}, h.ResetPassword)

	huma.Register(api, huma.Operation{
		OperationID: "delete-account",
		Method:      http.MethodDelete,
		Path:        "/account",
		Summary:     "Delete your account and release its pixels",
		Tags:        []string{"accounts"},
	}, h.DeleteAccount)
}

func (h *AccountHandler) Signup(ctx context.Context, input *CredentialsInput) (*MessageOutput, error) {
	if _, err := h.accounts.Signup(ctx, input.Body.Email, input.Body.Password); err != nil {
		return nil, httpError(h.logger, "signup", err)
	}
	return message("User created, check your email to verify your address"), nil
}

func (h *AccountHandler) Login(ctx context.Context, input *CredentialsInput) (*LoginOutput, error) {
	token, err := h.accounts.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, httpError(h.logger, "login", err)
	}
	return &LoginOutput{Body: LoginResponse{Token: token}}, nil
}

func (h *AccountHandler) VerifyEmail(ctx context.Context, input *TokenInput) (*MessageOutput, error) {
	if err := h.accounts.VerifyEmail(ctx, input.Body.Token); err != nil {
		return nil, httpError(h.logger, "verify email", err)
	}
	return message("Email verified"), nil
}

func (h *AccountHandler) ResendVerification(ctx context.Context, input *EmailInput) (*MessageOutput, error) {
	if err := h.accounts.ResendVerification(ctx, input.Body.Email); err != nil {
		return nil, httpError(h.logger, "resend verification", err)
	}
	return message("If the account exists and is unverified, a new verification mail was sent"), nil
}

func (h *AccountHandler) ForgotPassword(ctx context.Context, input *EmailInput) (*MessageOutput, error) {
	if err := h.accounts.RequestPasswordReset(ctx, input.Body.Email); err != nil {
		return nil, httpError(h.logger, "request password reset", err)
	}
	return message("If the account exists, a reset link was sent"), nil
}

func (h *AccountHandler) ResetPassword(ctx context.Context, input *ResetPasswordInput) (*MessageOutput, error) {
	if err := h.accounts.ResetPassword(ctx, input.Body.Token, input.Body.Password); err != nil {
		return nil, httpError(h.logger, "reset password", err)
	}
	return message("Password updated"), nil
}

func (h *AccountHandler) DeleteAccount(ctx context.Context, input *AuthorizedInput) (*MessageOutput, error) {
	actor, err := h.accounts.Authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, httpError(h.logger, "authenticate", err)
	}
	if err := h.accounts.DeleteAccount(ctx, actor); err != nil {
		return nil, httpError(h.logger, "delete account", err)
	}
	return message("Account deleted"), nil
}
