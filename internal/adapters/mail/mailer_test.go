package mail

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestResetMessage(t *testing.T) {
	var buf bytes.Buffer
	if _, err := resetMessage("no-reply@linkup.local", "jane@example.com", "123456").WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"To: jane@example.com", "From: no-reply@linkup.local", "Password reset code", "123456", "text/html"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message is missing %q", want)
		}
	}
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	m := NewSMTPMailer("127.0.0.1", 1, "", "", "no-reply@linkup.local", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.SendPasswordReset(ctx, "jane@example.com", "123456"); err == nil {
		t.Fatalf("expected the context error")
	}
}

func TestLogMailer(t *testing.T) {
	if err := NewLogMailer(zap.NewNop()).SendPasswordReset(context.Background(), "jane@example.com", "123456"); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
}
