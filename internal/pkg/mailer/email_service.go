package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

// HandoffSummary is what the legal team needs to pick up a conversation.
type HandoffSummary struct {
	SessionID   string
	TeamName    string
	MatterType  string
	CaseSummary string
	KeyFacts    []string
	Email       string
	Phone       string
	Documents   []string
}

type IEmailService interface {
	SendHandoff(toEmail string, summary HandoffSummary) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *emailService) SendHandoff(toEmail string, summary HandoffSummary) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("New intake ready for review: %s", summary.MatterType))
	m.SetBody("text/html", RenderHandoff(summary))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send handoff to %s: %w", toEmail, err)
	}
	return nil
}

func RenderHandoff(summary HandoffSummary) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">`)
	fmt.Fprintf(&b, "<h2>New client intake</h2><p>Session <code>%s</code>", html.EscapeString(summary.SessionID))
	if summary.TeamName != "" {
		fmt.Fprintf(&b, " for %s", html.EscapeString(summary.TeamName))
	}
	b.WriteString("</p>")
	fmt.Fprintf(&b, "<p><strong>Matter:</strong> %s</p>", html.EscapeString(summary.MatterType))
	if summary.CaseSummary != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(summary.CaseSummary))
	}
	writeList(&b, "Key facts", summary.KeyFacts)
	if summary.Email != "" || summary.Phone != "" {
		fmt.Fprintf(&b, "<p><strong>Contact:</strong> %s %s</p>", html.EscapeString(summary.Email), html.EscapeString(summary.Phone))
	}
	writeList(&b, "Documents", summary.Documents)
	b.WriteString("</div>")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "<p><strong>%s:</strong></p><ul>", title)
	for _, item := range items {
		fmt.Fprintf(b, "<li>%s</li>", html.EscapeString(item))
	}
	b.WriteString("</ul>")
}
