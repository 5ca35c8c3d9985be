// Package email implements the SMTP sink. It speaks the SMTP dialog
// directly over a TCP socket — greeting, EHLO, optional STARTTLS upgrade,
// optional AUTH LOGIN, envelope, DATA — and rate-limits outgoing mail.
package email

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

var validate = validator.New()

const (
	// DefaultPort is used when the configuration leaves the port unset.
	DefaultPort = 25

	// DefaultTimeoutSeconds bounds the dial and each socket read/write.
	DefaultTimeoutSeconds = 10

	// DefaultRateLimitSeconds is the minimum gap between two emails.
	DefaultRateLimitSeconds = 60
)

// Config describes the SMTP destination.
type Config struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`

	// Username enables AUTH LOGIN when non-empty.
	Username string
	Password string

	// StartTLS upgrades the connection before authenticating.
	StartTLS bool

	From    string   `validate:"required,email"`
	To      []string `validate:"required,min=1,dive,email"`
	Subject string   `validate:"required"`

	// HTML switches the body content type from text/plain to text/html.
	HTML bool

	// RateLimitSeconds is the minimum gap between emails; records inside
	// the window are dropped.
	RateLimitSeconds int `validate:"min=0"`

	TimeoutSeconds int `validate:"min=0,max=300"`
}

func (c *Config) normalize() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.RateLimitSeconds == 0 {
		c.RateLimitSeconds = DefaultRateLimitSeconds
	}
}

// Handler sends one email per accepted record, at most one per rate
// window. Dialog failures are swallowed.
type Handler struct {
	*handler.Base
	config  Config
	limiter *rate.Limiter

	// dial is injectable for tests.
	dial func(network, addr string, timeout time.Duration) (net.Conn, error)
	now  func() time.Time
}

var _ handler.Streamable = (*Handler)(nil)

// New validates the configuration, including the sender and recipient
// addresses, and creates the sink.
func New(cfg Config, minLevel record.Level) (*Handler, error) {
	cfg.normalize()
	if err := validate.Struct(&cfg); err != nil {
		return nil, handler.NewConstructionError("email", "invalid configuration", err)
	}
	return &Handler{
		Base:    handler.NewBase("email", minLevel),
		config:  cfg,
		limiter: rate.NewLimiter(rate.Every(time.Duration(cfg.RateLimitSeconds)*time.Second), 1),
		dial:    net.DialTimeout,
		now:     time.Now,
	}, nil
}

// Handle sends the formatted payload as the mail body. Records arriving
// inside the rate window are dropped.
func (h *Handler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	_, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	if !h.limiter.Allow() {
		return "", false, nil
	}
	if err := h.send(level, payload); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

// send runs the SMTP dialog for one message.
func (h *Handler) send(level record.Level, body string) error {
	timeout := time.Duration(h.config.TimeoutSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", h.config.Host, h.config.Port)

	conn, err := h.dial("tcp", addr, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	s := &session{conn: conn, timeout: timeout}

	if _, err := s.expect(220); err != nil {
		return err
	}
	if err := s.command("EHLO fanlog", 250); err != nil {
		return err
	}

	if h.config.StartTLS {
		if err := s.command("STARTTLS", 220); err != nil {
			return err
		}
		tlsConn := tls.Client(conn, &tls.Config{ServerName: h.config.Host})
		if err := tlsConn.Handshake(); err != nil {
			return err
		}
		s.conn = tlsConn
		if err := s.command("EHLO fanlog", 250); err != nil {
			return err
		}
	}

	if h.config.Username != "" {
		if err := s.command("AUTH LOGIN", 334); err != nil {
			return err
		}
		if err := s.command(base64.StdEncoding.EncodeToString([]byte(h.config.Username)), 334); err != nil {
			return err
		}
		if err := s.command(base64.StdEncoding.EncodeToString([]byte(h.config.Password)), 235); err != nil {
			return err
		}
	}

	if err := s.command("MAIL FROM:<"+h.config.From+">", 250); err != nil {
		return err
	}
	for _, to := range h.config.To {
		if err := s.command("RCPT TO:<"+to+">", 250); err != nil {
			return err
		}
	}
	if err := s.command("DATA", 354); err != nil {
		return err
	}
	if err := s.write(h.message(level, body) + "\r\n.\r\n"); err != nil {
		return err
	}
	if _, err := s.expect(250); err != nil {
		return err
	}
	return s.command("QUIT", 221)
}

// message renders the headers and body.
func (h *Handler) message(level record.Level, body string) string {
	contentType := "text/plain"
	if h.config.HTML {
		contentType = "text/html"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", h.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(h.config.To, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", strings.ToUpper(level.String()), h.config.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", h.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=utf-8\r\n", contentType)
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// session is one SMTP conversation.
type session struct {
	conn    net.Conn
	timeout time.Duration
}

// command writes a command line and checks the response code.
func (s *session) command(line string, want int) error {
	if err := s.write(line + "\r\n"); err != nil {
		return err
	}
	_, err := s.expect(want)
	return err
}

func (s *session) write(data string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	_, err := s.conn.Write([]byte(data))
	return err
}

// expect reads one SMTP response, following continuation lines (a response
// is multi-line while its fourth byte is '-'), and verifies the code.
func (s *session) expect(want int) (string, error) {
	var last string
	for {
		line, err := s.readLine()
		if err != nil {
			return "", err
		}
		last = line
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	var code int
	if _, err := fmt.Sscanf(last, "%3d", &code); err != nil {
		return "", fmt.Errorf("email: malformed SMTP response %q", last)
	}
	if code != want {
		return last, fmt.Errorf("email: unexpected SMTP response %q, want %d", last, want)
	}
	return last, nil
}

func (s *session) readLine() (string, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return "", err
	}
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			continue
		}
		if buf[0] == '\n' {
			break
		}
		if buf[0] != '\r' {
			line = append(line, buf[0])
		}
	}
	return string(line), nil
}
