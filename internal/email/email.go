// Package email sends the welcome mail after registration. Without an SMTP
// host it only logs the message.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"

	"github.com/pliu/newsportal/internal/config"
	"github.com/rs/zerolog"
)

const welcomeSubject = "Добро пожаловать в НовостиПортал"

type Sender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	log  *zerolog.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg config.SMTPConfig, log *zerolog.Logger) *Sender {
	return &Sender{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		log:      log,
		send:     smtp.SendMail,
	}
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
        .header { background-color: #b91c1c; color: white; padding: 10px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { padding: 20px; }
        .footer { margin-top: 20px; font-size: 0.8em; color: #777; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>НовостиПортал</h1>
        </div>
        <div class="content">
            <p>Здравствуйте, {{.Name}}!</p>
            <p>Спасибо за регистрацию. Теперь вы можете сохранять новости и общаться в чате.</p>
        </div>
        <div class="footer">
            <p>Вы получили это письмо, потому что зарегистрировались с адресом {{.Email}}.</p>
        </div>
    </div>
</body>
</html>
`))

// Render returns the full message, headers included.
func (s *Sender) Render(to, name string) ([]byte, error) {
	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, map[string]string{"Name": name, "Email": to}); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	headers := [][2]string{
		{"From", s.From},
		{"To", to},
		{"Subject", welcomeSubject},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
	}
	var msg strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&msg, "%s: %s\r\n", h[0], h[1])
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return []byte(msg.String()), nil
}

// SendWelcome mails to, or logs the mail when no host is configured.
func (s *Sender) SendWelcome(to, name string) error {
	msg, err := s.Render(to, name)
	if err != nil {
		return err
	}

	if s.Host == "" {
		s.log.Info().Str("to", to).Str("subject", welcomeSubject).Msg("mock email")
		return nil
	}

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	if err := s.send(net.JoinHostPort(s.Host, s.Port), auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send welcome to %s: %w", to, err)
	}
	return nil
}
