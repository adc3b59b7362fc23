package notify

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// MailMethod is the JSON-RPC method the mail service exposes.
const MailMethod = "mail.send"

// Message is the mail.send payload.
type Message struct {
	To       string `json:"to"`
	Template string `json:"template"`
	Subject  string `json:"subject"`
	Link     string `json:"link"`
}

const (
	templateVerify = "verify_email"
	templateReset  = "reset_password"
)

func link(clientURL, path, token string) string {
	return strings.TrimRight(clientURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func verificationMessage(clientURL, to, token string) Message {
	return Message{
		To:       to,
		Template: templateVerify,
		Subject:  "Verify your Pixel Mosaic email",
		Link:     link(clientURL, "/verify-email", token),
	}
}

func resetMessage(clientURL, to, token string) Message {
	return Message{
		To:       to,
		Template: templateReset,
		Subject:  "Reset your password",
		Link:     link(clientURL, "/reset-password", token),
	}
}

// RPCMailer sends account mail through the JSON-RPC mail service.
type RPCMailer struct {
	client    *RPCClient
	clientURL string
}

// NewRPCMailer creates a mailer. clientURL is the base of the links in each mail.
func NewRPCMailer(client *RPCClient, clientURL string) *RPCMailer {
	return &RPCMailer{client: client, clientURL: clientURL}
}

func (m *RPCMailer) SendVerification(ctx context.Context, to, token string) error {
	return m.client.Call(ctx, MailMethod, verificationMessage(m.clientURL, to, token), nil)
}

func (m *RPCMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	return m.client.Call(ctx, MailMethod, resetMessage(m.clientURL, to, token), nil)
}

// LogMailer writes mail to the log instead of sending it. Used when no mail
// service is configured.
type LogMailer struct {
	clientURL string
	logger    *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(clientURL string, logger *slog.Logger) *LogMailer {
	return &LogMailer{clientURL: clientURL, logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, token string) error {
	m.log(ctx, verificationMessage(m.clientURL, to, token))
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.log(ctx, resetMessage(m.clientURL, to, token))
	return nil
}

func (m *LogMailer) log(ctx context.Context, msg Message) {
	m.logger.InfoContext(ctx, "mail not sent, no mail service configured",
		"to", msg.To,
		"template", msg.Template,
		"link", msg.Link,
	)
}
