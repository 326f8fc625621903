package mailer

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

const xMailer = "CampusKart Marketplace"

// Message описывает письмо с HTML и текстовой версией
type Message struct {
	FromName    string
	To          string
	ReplyTo     string
	ReplyToName string
	Subject     string
	HTML        string
	Text        string // если пусто, строится из HTML
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer отправляет письма через SMTP с STARTTLS, если сервер его умеет.
// Между письмами выдерживается не меньше minInterval.
type SMTPMailer struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	support     string
	timeout     time.Duration
	minInterval time.Duration

	mu       sync.Mutex
	lastSent time.Time
}

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Support  string
}

func NewSMTPMailer(opts Options) *SMTPMailer {
	return &SMTPMailer{
		host:        opts.Host,
		port:        opts.Port,
		username:    opts.Username,
		password:    opts.Password,
		from:        opts.From,
		support:     opts.Support,
		timeout:     30 * time.Second,
		minInterval: time.Second,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	const op = "mailer.SMTPMailer.Send"

	if m.from == "" {
		return fmt.Errorf("%s: sender address is not configured", op)
	}

	built, err := Build(m.from, m.support, msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	client, err := mail.NewClient(m.host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("%s: smtp client: %w", op, err)
	}

	if err := m.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, built); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(m.timeout),
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	return opts
}

// wait выдерживает паузу между письмами
func (m *SMTPMailer) wait(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if delay := m.minInterval - time.Since(m.lastSent); delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.lastSent = time.Now()
	return nil
}

// Build собирает письмо multipart/alternative: текстовая часть и HTML.
func Build(from, support string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	if err := setAddress(m.From, m.FromFormat, msg.FromName, from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := setAddress(m.ReplyTo, m.ReplyToFormat, msg.ReplyToName, msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetGenHeader(mail.HeaderXMailer, xMailer)
	m.SetGenHeader(mail.HeaderXPriority, "3")
	if support != "" {
		m.SetGenHeaderPreformatted(mail.HeaderListUnsubscribe,
			fmt.Sprintf("<mailto:%s?subject=Unsubscribe>", support))
	}

	text := msg.Text
	if text == "" {
		text = StripHTML(msg.HTML)
	}
	m.SetBodyString(mail.TypeTextPlain, text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	return m, nil
}

func setAddress(plain func(string) error, named func(string, string) error, name, addr string) error {
	if name == "" {
		return plain(addr)
	}
	return named(name, addr)
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// StripHTML делает текстовую версию письма из HTML
func StripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(html.UnescapeString(s))
}
