package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var testConfig = Config{Host: "smtp.test", Port: "587", Username: "u", Password: "p", From: "blog@example.com"}

func TestNewSMTPDispatcher_Disabled(t *testing.T) {
	if d := NewSMTPDispatcher(Config{Host: "smtp.test"}, zerolog.Nop()); d != nil {
		t.Fatalf("expected nil dispatcher for incomplete config")
	}
}

func TestSMTPDispatcher_Send(t *testing.T) {
	d := NewSMTPDispatcher(testConfig, zerolog.Nop())
	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	d.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}
	d.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	if err := d.Send(context.Background(), "a@example.com", "Hello", "line1\nline2"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if gotAddr != "smtp.test:587" {
		t.Fatalf("unexpected addr %s", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@example.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{"To: a@example.com\r\n", "Subject: Hello\r\n", "\r\n\r\nline1\r\nline2"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSMTPDispatcher_SendFailureSurfaces(t *testing.T) {
	d := NewSMTPDispatcher(testConfig, zerolog.Nop())
	d.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }

	if err := d.Send(context.Background(), "a@example.com", "Hello", "body"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSMTPDispatcher_RejectsHeaderInjection(t *testing.T) {
	d := NewSMTPDispatcher(testConfig, zerolog.Nop())
	d.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatalf("send must not be called")
		return nil
	}
	if err := d.Send(context.Background(), "a@example.com\r\nBcc: x@example.com", "Hello", "body"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSMTPDispatcher_NilSendFails(t *testing.T) {
	var d *SMTPDispatcher
	if err := d.Send(context.Background(), "a@example.com", "Hello", "body"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
