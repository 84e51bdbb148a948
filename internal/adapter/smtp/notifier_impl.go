// Package smtp delivers alert digests and summaries by email.
package smtp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	netsmtp "net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/entity"
)

var ErrNotConfigured = errors.New("smtp notifier is not configured")

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// sendFunc has the signature of net/smtp.SendMail.
type sendFunc func(addr string, a netsmtp.Auth, from string, to []string, msg []byte) error

// Notifier implements repository.Notifier over SMTP.
type Notifier struct {
	opts   Options
	send   sendFunc
	now    func() time.Time
	logger *zap.Logger
}

func NewNotifier(opts Options, logger *zap.Logger) *Notifier {
	if opts.From == "" {
		opts.From = opts.Username
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{opts: opts, send: netsmtp.SendMail, now: time.Now, logger: logger}
}

func (n *Notifier) NotifyAlerts(ctx context.Context, alerts []entity.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	subject := fmt.Sprintf("%d New Startup Revenue Alert", len(alerts))
	if len(alerts) != 1 {
		subject += "s"
	}

	var html, text bytes.Buffer
	if err := alertsHTML.Execute(&html, alerts); err != nil {
		return fmt.Errorf("render alerts html: %w", err)
	}
	if err := alertsText.Execute(&text, alerts); err != nil {
		return fmt.Errorf("render alerts text: %w", err)
	}
	return n.deliver(ctx, subject, html.Bytes(), text.Bytes())
}

func (n *Notifier) NotifySummary(ctx context.Context, stats entity.StoreStats, recent []entity.Alert) error {
	data := summaryData{Stats: stats, Recent: recent}
	var html, text bytes.Buffer
	if err := summaryHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("render summary html: %w", err)
	}
	if err := summaryText.Execute(&text, data); err != nil {
		return fmt.Errorf("render summary text: %w", err)
	}
	subject := "Weekly Revenue Tracker Summary - " + n.now().Format("Jan 2, 2006")
	return n.deliver(ctx, subject, html.Bytes(), text.Bytes())
}

func (n *Notifier) deliver(ctx context.Context, subject string, html, text []byte) error {
	if n.opts.Host == "" || n.opts.From == "" || n.opts.To == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.compose(subject, html, text)
	if err != nil {
		return err
	}

	var auth netsmtp.Auth
	if n.opts.Username != "" {
		auth = netsmtp.PlainAuth("", n.opts.Username, n.opts.Password, n.opts.Host)
	}
	addr := net.JoinHostPort(n.opts.Host, strconv.Itoa(n.opts.Port))
	if err := n.send(addr, auth, n.opts.From, []string{n.opts.To}, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	n.logger.Info("email sent", zap.String("subject", subject), zap.String("to", n.opts.To))
	return nil
}

// compose builds a multipart/alternative message with text and HTML parts.
func (n *Notifier) compose(subject string, html, text []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     []byte
	}{
		{"text/plain; charset=utf-8", text},
		{"text/html; charset=utf-8", html},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		if _, err := w.Write(p.content); err != nil {
			return nil, fmt.Errorf("write mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.opts.From)
	fmt.Fprintf(&msg, "To: %s\r\n", n.opts.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func formatAmount(millions float64) string {
	if millions >= 1000 {
		return fmt.Sprintf("$%.1fB", millions/1000)
	}
	return fmt.Sprintf("$%.1fM", millions)
}
