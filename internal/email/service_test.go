package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "test@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestSendEmailNotConfigured(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendEmail([]string{"to@example.com"}, "subject", "body"); err == nil {
		t.Error("expected error when not configured")
	}
	if err := svc.SendHTMLEmail([]string{"to@example.com"}, "subject", "<p>body</p>"); err == nil {
		t.Error("expected error when not configured")
	}
}

func TestRenderVerificationTemplate(t *testing.T) {
	html, err := renderTemplate(verificationEmailTemplate, VerificationData{
		AppName:         "Agenda",
		UserName:        "Ana",
		VerificationURL: "https://example.com/verify?token=abc",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	for _, want := range []string{"Ana", "https://example.com/verify?token=abc", "Agenda"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered template missing %q", want)
		}
	}
}

func TestRenderPasswordResetTemplate(t *testing.T) {
	html, err := renderTemplate(passwordResetEmailTemplate, PasswordResetData{
		AppName:  "Agenda",
		UserName: "Ana",
		ResetURL: "https://example.com/reset?token=xyz",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	if !strings.Contains(html, "https://example.com/reset?token=xyz") {
		t.Error("rendered template missing reset URL")
	}
}
