// Package notify sends a digest email with records newly added to the archive.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/stageside/stageside/pkg/config"
	"github.com/stageside/stageside/pkg/domain"
)

const dialTimeout = 15 * time.Second

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`<h2>오늘의 주요 뉴스</h2><br>
{{range .}}<h3>{{.TitleKR}} ({{.Source}})</h3>
<p><b>원문 링크:</b> <a href="{{.Link}}">{{.Link}}</a></p>
<p>{{range $i, $l := lines .SummaryKR}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p><hr>
{{end}}`))

// sendFunc delivers a prepared message
type sendFunc func(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier mails newly added records as a single html digest
type EmailNotifier struct {
	cfg  config.NotifyConfig
	send sendFunc
	now  func() time.Time
}

// NewEmailNotifier makes a notifier. Port 465 uses implicit TLS, any other port goes through STARTTLS.
func NewEmailNotifier(cfg config.NotifyConfig) *EmailNotifier {
	res := &EmailNotifier{cfg: cfg, now: time.Now, send: sendStartTLS}
	if cfg.SMTPPort == 465 {
		res.send = sendImplicitTLS
	}
	return res
}

// Enabled reports whether credentials and recipients are set
func (n *EmailNotifier) Enabled() bool {
	return n.cfg.Username != "" && n.cfg.Password != "" && len(n.cfg.To) > 0
}

// Notify sends the digest. Without credentials or records it only logs and returns nil.
func (n *EmailNotifier) Notify(ctx context.Context, records []domain.ArticleRecord) error {
	if !n.Enabled() {
		lgr.Printf("[INFO] email is not configured, digest of %d records not sent", len(records))
		return nil
	}
	if len(records) == 0 {
		lgr.Printf("[DEBUG] no new records, digest not sent")
		return nil
	}

	msg, err := n.message(records)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(n.cfg.SMTPHost, strconv.Itoa(n.cfg.SMTPPort))
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
	if err := n.send(ctx, addr, auth, n.from(), n.cfg.To, msg); err != nil {
		return fmt.Errorf("send digest to %s: %w", addr, err)
	}
	lgr.Printf("[INFO] digest with %d records sent to %s", len(records), strings.Join(n.cfg.To, ", "))
	return nil
}

func (n *EmailNotifier) from() string {
	if n.cfg.From != "" {
		return n.cfg.From
	}
	return n.cfg.Username
}

// message renders headers and html body of the digest
func (n *EmailNotifier) message(records []domain.ArticleRecord) ([]byte, error) {
	var body bytes.Buffer
	if err := digestTmpl.Execute(&body, records); err != nil {
		return nil, fmt.Errorf("render digest: %w", err)
	}

	subject := "[StageSide] 최신 뉴스 요약 - " + n.now().Format("2006-01-02 15:04")
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.from())
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.BEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// sendImplicitTLS talks SMTP over a TLS connection, as smtp servers on port 465 expect
func sendImplicitTLS(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("parse address: %w", err)
	}
	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: dialTimeout}, Config: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()
	return deliver(c, auth, from, to, msg)
}

// sendStartTLS uses smtp.SendMail which upgrades the connection when the server offers STARTTLS
func sendStartTLS(_ context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	return smtp.SendMail(addr, auth, from, to, msg)
}

func deliver(c *smtp.Client, auth smtp.Auth, from string, to []string, msg []byte) error {
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return c.Quit()
}
