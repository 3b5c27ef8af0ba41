package email

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	mail "github.com/xhit/go-simple-mail/v2"

	"github.com/simmerhq/simmer/config"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Service sends notification emails over SMTP.
type Service struct {
	config *config.EmailConfig
}

// DigestData is the template payload for a like digest email.
type DigestData struct {
	Username  string
	Likes     int64
	Window    string
	ServerURL string
}

// New creates a new email notification service.
func New(cfg *config.EmailConfig) *Service {
	return &Service{config: cfg}
}

// Enabled reports whether email delivery is configured and turned on.
func (s *Service) Enabled() bool {
	return s.config != nil && s.config.Enabled
}

// RenderDigest renders the HTML body of a like digest email.
func (s *Service) RenderDigest(data DigestData) (string, error) {
	t, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "digest.html", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Send transmits one email to the given recipients. It is a single attempt,
// any retry policy belongs to the caller.
func (s *Service) Send(subject, body string, recipients []string) error {
	if !s.Enabled() {
		log.Debug("Email notifications are disabled, skipping send", "subject", subject)
		return nil
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	server := mail.NewSMTPClient()
	server.Host = s.config.SMTPHost
	server.Port = s.config.SMTPPort
	server.Username = s.config.Username
	server.Password = s.config.Password

	if s.config.UseSSL {
		server.Encryption = mail.EncryptionSSLTLS
	} else if s.config.UseTLS {
		server.Encryption = mail.EncryptionSTARTTLS
	} else {
		server.Encryption = mail.EncryptionNone
	}

	if s.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	fromName := s.config.FromName
	if fromName == "" {
		fromName = "Simmer"
	}

	msg := mail.NewMSG()
	msg.SetFrom(fmt.Sprintf("%s <%s>", fromName, s.config.FromEmail))
	for _, to := range recipients {
		msg.AddTo(to)
	}
	msg.SetSubject(subject)
	msg.SetBody(mail.TextHTML, body)

	if msg.Error != nil {
		return fmt.Errorf("failed to build email: %w", msg.Error)
	}

	if err := msg.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
