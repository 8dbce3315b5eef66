package mail

import (
	"context"
	"fmt"

	"github.com/monocle-dev/devboard/internal/config"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers rendered messages through an SMTP relay.
type SMTPSender struct {
	client   *gomail.Client
	from     string
	renderer *Renderer
}

func NewSMTPSender(cfg config.MailConfig, renderer *Renderer) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.Sender, renderer: renderer}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	html, text, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}

	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, text)
	m.AddAlternativeString(gomail.TypeTextHTML, html)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
