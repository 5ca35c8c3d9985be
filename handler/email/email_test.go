package email

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croftbyte/go-fanlog/record"
)

// smtpServer is a scripted SMTP endpoint recording the client's commands.
type smtpServer struct {
	listener net.Listener

	mu       sync.Mutex
	commands []string
	body     []string
}

func newSMTPServer(t *testing.T) *smtpServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &smtpServer{listener: listener}
	go s.serve()
	t.Cleanup(func() { listener.Close() })
	return s
}

func (s *smtpServer) addr() (host string, port int) {
	tcp := s.listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", tcp.Port
}

func (s *smtpServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpServer) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	write := func(line string) {
		conn.Write([]byte(line + "\r\n"))
	}
	write("220 test.local ESMTP ready")

	inData := false
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if inData {
			s.mu.Lock()
			s.body = append(s.body, line)
			s.mu.Unlock()
			if line == "." {
				inData = false
				write("250 queued")
			}
			continue
		}

		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		switch {
		case strings.HasPrefix(line, "EHLO"):
			// Multi-line response: continuation lines carry '-' as the
			// fourth byte.
			write("250-test.local")
			write("250-AUTH LOGIN")
			write("250 OK")
		case line == "AUTH LOGIN":
			write("334 VXNlcm5hbWU6")
		case strings.HasPrefix(line, "MAIL FROM:"):
			write("250 sender ok")
		case strings.HasPrefix(line, "RCPT TO:"):
			write("250 recipient ok")
		case line == "DATA":
			inData = true
			write("354 go ahead")
		case line == "QUIT":
			write("221 bye")
			return
		default:
			// AUTH LOGIN username/password round trips.
			if len(line) > 0 && !strings.Contains(line, " ") {
				s.mu.Lock()
				n := len(s.commands)
				prev := ""
				if n >= 2 {
					prev = s.commands[n-2]
				}
				s.mu.Unlock()
				if prev == "AUTH LOGIN" {
					write("334 UGFzc3dvcmQ6")
					continue
				}
				write("235 authenticated")
				continue
			}
			write("250 ok")
		}
	}
}

func (s *smtpServer) commandLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

func (s *smtpServer) bodyText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.body, "\n")
}

func testConfig(host string, port int) Config {
	return Config{
		Host:             host,
		Port:             port,
		From:             "alerts@example.com",
		To:               []string{"ops@example.com"},
		Subject:          "production alert",
		RateLimitSeconds: 60,
		TimeoutSeconds:   5,
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing_host", mutate: func(c *Config) { c.Host = "" }},
		{name: "bad_sender", mutate: func(c *Config) { c.From = "not-an-address" }},
		{name: "bad_recipient", mutate: func(c *Config) { c.To = []string{"nope"} }},
		{name: "no_recipients", mutate: func(c *Config) { c.To = nil }},
		{name: "missing_subject", mutate: func(c *Config) { c.Subject = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("smtp.example.com", 25)
			tt.mutate(&cfg)
			_, err := New(cfg, record.Error)
			assert.Error(t, err)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	h, err := New(testConfig("smtp.example.com", 0), record.Error)
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, h.config.Port)
	assert.Equal(t, "email", h.Kind())
}

func TestHandleSpeaksSMTPDialog(t *testing.T) {
	server := newSMTPServer(t)
	host, port := server.addr()

	h, err := New(testConfig(host, port), record.Error)
	require.NoError(t, err)
	h.SetContext("orders")

	payload, delivered, err := h.Handle(record.Critical, "db down", nil)
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Contains(t, payload, "db down")

	// Give the server goroutine a beat to record QUIT.
	time.Sleep(50 * time.Millisecond)

	commands := server.commandLog()
	require.NotEmpty(t, commands)
	assert.Equal(t, "EHLO fanlog", commands[0])
	assert.Contains(t, commands, "MAIL FROM:<alerts@example.com>")
	assert.Contains(t, commands, "RCPT TO:<ops@example.com>")
	assert.Contains(t, commands, "DATA")
	assert.Contains(t, commands, "QUIT")

	body := server.bodyText()
	assert.Contains(t, body, "Subject: [CRITICAL] production alert")
	assert.Contains(t, body, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, body, "Content-Transfer-Encoding: 8bit")
	assert.Contains(t, body, "db down")
}

func TestHandleHTMLContentType(t *testing.T) {
	server := newSMTPServer(t)
	host, port := server.addr()

	cfg := testConfig(host, port)
	cfg.HTML = true
	h, err := New(cfg, record.Error)
	require.NoError(t, err)

	_, delivered, err := h.Handle(record.Error, "boom", nil)
	require.NoError(t, err)
	assert.True(t, delivered)

	time.Sleep(50 * time.Millisecond)
	assert.Contains(t, server.bodyText(), "Content-Type: text/html; charset=utf-8")
}

func TestHandleRateLimitDropsWithinWindow(t *testing.T) {
	server := newSMTPServer(t)
	host, port := server.addr()

	h, err := New(testConfig(host, port), record.Error)
	require.NoError(t, err)

	_, delivered, err := h.Handle(record.Error, "first", nil)
	require.NoError(t, err)
	assert.True(t, delivered)

	_, delivered, err = h.Handle(record.Error, "second", nil)
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestHandleDialFailureIsSwallowed(t *testing.T) {
	h, err := New(testConfig("127.0.0.1", 1), record.Error)
	require.NoError(t, err)
	h.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		return nil, assert.AnError
	}

	_, delivered, err := h.Handle(record.Error, "boom", nil)
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestHandleLevelGate(t *testing.T) {
	h, err := New(testConfig("smtp.example.com", 25), record.Error)
	require.NoError(t, err)

	_, delivered, err := h.Handle(record.Info, "below", nil)
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestAuthLoginDialog(t *testing.T) {
	server := newSMTPServer(t)
	host, port := server.addr()

	cfg := testConfig(host, port)
	cfg.Username = "user"
	cfg.Password = "pass"
	h, err := New(cfg, record.Error)
	require.NoError(t, err)

	_, delivered, err := h.Handle(record.Error, "boom", nil)
	require.NoError(t, err)
	assert.True(t, delivered)

	time.Sleep(50 * time.Millisecond)
	commands := server.commandLog()
	assert.Contains(t, commands, "AUTH LOGIN")
	assert.Contains(t, commands, "dXNlcg==") // base64("user")
	assert.Contains(t, commands, "cGFzcw==") // base64("pass")
}
