// Package mail renders and delivers account emails.
package mail

import (
	"context"
	"fmt"
	"net/url"

	"github.com/matcornic/hermes/v2"
	"github.com/monocle-dev/devboard/internal/config"
)

type Message struct {
	To           string
	Subject      string
	Name         string
	Intro        string
	Instructions string
	ButtonText   string
	Link         string
	Outro        string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer turns a Message into matching HTML and plain-text bodies.
type Renderer struct {
	h hermes.Hermes
}

func NewRenderer(cfg config.MailConfig) *Renderer {
	return &Renderer{h: hermes.Hermes{
		Product: hermes.Product{
			Name: cfg.ProductName,
			Link: cfg.ProductLink,
		},
	}}
}

func (r *Renderer) email(msg Message) hermes.Email {
	body := hermes.Body{
		Name:   msg.Name,
		Intros: []string{msg.Intro},
		Outros: []string{msg.Outro},
	}

	if msg.Link != "" {
		body.Actions = []hermes.Action{{
			Instructions: msg.Instructions,
			Button: hermes.Button{
				Color: "#22BC66",
				Text:  msg.ButtonText,
				Link:  msg.Link,
			},
		}}
	}

	return hermes.Email{Body: body}
}

func (r *Renderer) Render(msg Message) (html, text string, err error) {
	email := r.email(msg)

	if html, err = r.h.GenerateHTML(email); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if text, err = r.h.GeneratePlainText(email); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}

	return html, text, nil
}

// Links builds frontend URLs carrying one-time tokens.
type Links struct {
	FrontendURL string
}

func (l Links) VerifyEmail(token string) string {
	return l.FrontendURL + "/verify-email?token=" + url.QueryEscape(token)
}

func (l Links) ResetPassword(token string) string {
	return l.FrontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func VerificationMessage(to, username, link string) Message {
	return Message{
		To:           to,
		Subject:      "Please verify your email",
		Name:         username,
		Intro:        "Welcome to our app! We're very excited to have you on board.",
		Instructions: "To verify your email please click on the following button",
		ButtonText:   "Verify your email",
		Link:         link,
		Outro:        "Need help, or have questions? Just reply to this email, we'd love to help.",
	}
}

func PasswordResetMessage(to, username, link string) Message {
	return Message{
		To:           to,
		Subject:      "Password reset request",
		Name:         username,
		Intro:        "We got a request to reset the password of your account.",
		Instructions: "To reset your password click on the following button or link",
		ButtonText:   "Reset password",
		Link:         link,
		Outro:        "Need help, or have questions? Just reply to this email, we'd love to help.",
	}
}
