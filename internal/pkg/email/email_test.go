package email

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestUnconfiguredServiceDoesNotSend(t *testing.T) {
	svc := NewEmailService(SMTPConfig{Host: "127.0.0.1", Port: 1}, zerolog.Nop())

	if err := svc.SendNotificationEmail("ada@example.com", "Update for Picnic", "Event 'Picnic' updated: title"); err != nil {
		t.Fatalf("expected nil error without credentials, got %v", err)
	}
	if err := svc.SendPasswordResetEmail("ada@example.com", "Ada", "tok"); err != nil {
		t.Fatalf("expected nil error without credentials, got %v", err)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	s := &EmailServiceImpl{config: SMTPConfig{FromName: "Gatherly", FromEmail: "no-reply@gatherly.test"}}

	msg := string(s.buildMessage("ada@example.com", "Update for Picnic", "<p>hi</p>"))

	for _, want := range []string{
		"From: Gatherly <no-reply@gatherly.test>\r\n",
		"To: ada@example.com\r\n",
		"Subject: Update for Picnic\r\n",
		"\r\n\r\n<p>hi</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildMessageFlattensHeaderBreaks(t *testing.T) {
	s := &EmailServiceImpl{config: SMTPConfig{FromName: "Gatherly", FromEmail: "no-reply@gatherly.test"}}

	msg := string(s.buildMessage("ada@example.com\r\nCc: eve@example.com", "Update for Party\r\nBcc: victim@evil.example", "<p>hi</p>"))

	head, _, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header terminator:\n%s", msg)
	}
	lines := strings.Split(head, "\r\n")
	if len(lines) != 5 {
		t.Fatalf("header lines = %d, want 5:\n%s", len(lines), head)
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "Bcc:") || strings.HasPrefix(line, "Cc:") {
			t.Fatalf("injected header %q", line)
		}
		if strings.ContainsAny(line, "\r\n") {
			t.Fatalf("bare line break in %q", line)
		}
	}
}

func TestBuildMessageEncodesNonASCIISubject(t *testing.T) {
	s := &EmailServiceImpl{config: SMTPConfig{FromName: "Gatherly", FromEmail: "no-reply@gatherly.test"}}

	msg := string(s.buildMessage("ada@example.com", "Update for Café", "<p>hi</p>"))

	if !strings.Contains(msg, "Subject: =?utf-8?q?Update_for_Caf=C3=A9?=\r\n") {
		t.Fatalf("subject not Q-encoded:\n%s", msg)
	}
}

func TestSendTimesOutOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// Accept connections and never send a greeting.
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	}()

	svc := NewEmailService(SMTPConfig{
		Host:      "127.0.0.1",
		Port:      ln.Addr().(*net.TCPAddr).Port,
		Username:  "user",
		Password:  "pass",
		FromEmail: "no-reply@gatherly.test",
		Timeout:   200 * time.Millisecond,
	}, zerolog.Nop())

	result := make(chan error, 1)
	go func() {
		result <- svc.SendNotificationEmail("ada@example.com", "Update for Picnic", "Event 'Picnic' updated: title")
	}()

	select {
	case err := <-result:
		if err == nil {
			t.Fatal("expected an error from a silent server")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("send did not honour the timeout")
	}
}
