package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mail.v2"

	"vaccine_slot_notifier/internal/domain/notice"
)

// Options is the SMTP transport configuration.
type Options struct {
	Host     string
	Port     int
	Secure   bool // implicit TLS instead of STARTTLS
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// Client sends notices to every configured recipient in one SMTP message.
type Client struct {
	opts   Options
	dialer *mail.Dialer
}

func NewClient(opts Options) *Client {
	dialer := mail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password)
	dialer.SSL = opts.Secure
	if opts.Timeout > 0 {
		dialer.Timeout = opts.Timeout
	}
	return &Client{opts: opts, dialer: dialer}
}

func (c *Client) Name() string { return "email" }

// Send dials the SMTP server and delivers msg. There is no retry.
func (c *Client) Send(ctx context.Context, msg notice.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.dialer.DialAndSend(c.buildMessage(msg)); err != nil {
		return fmt.Errorf("send email via %s:%d: %w", c.opts.Host, c.opts.Port, err)
	}
	return nil
}

func (c *Client) buildMessage(msg notice.Message) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", c.opts.From)
	m.SetHeader("To", c.opts.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}
