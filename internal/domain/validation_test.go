package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{"Valid email", "test@example.com", nil},
		{"Valid email with subdomain", "user@mail.example.com", nil},
		{"Valid email with plus", "user+tag@example.com", nil},
		{"Valid email with dots", "user.name@example.com", nil},
		{"Surrounding whitespace trimmed", "  test@example.com  ", nil},
		{"Invalid email - no @", "testexample.com", ErrInvalidEmail},
		{"Invalid email - no domain", "test@", ErrInvalidEmail},
		{"Invalid email - no local part", "@example.com", ErrInvalidEmail},
		{"Invalid email - empty", "", ErrInvalidEmail},
		{"Invalid email - too long", strings.Repeat("a", 250) + "@example.com", ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSender(t *testing.T) {
	tests := []struct {
		name    string
		sender  Sender
		wantErr error
	}{
		{"Valid sender", Sender{Email: "a@b.com", Port: 465}, nil},
		{"Invalid email", Sender{Email: "not-an-email", Port: 465}, ErrInvalidEmail},
		{"Port zero", Sender{Email: "a@b.com", Port: 0}, ErrInvalidPort},
		{"Port out of range", Sender{Email: "a@b.com", Port: 70000}, ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSender(&tt.sender)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, ValidateTemplate(&Template{Subject: "Hi", HTMLBody: "<p>x</p>"}))
	assert.ErrorIs(t, ValidateTemplate(&Template{Subject: "  ", HTMLBody: "<p>x</p>"}), ErrEmptySubject)
	assert.ErrorIs(t, ValidateTemplate(&Template{Subject: "Hi", HTMLBody: ""}), ErrEmptyBody)
}

func TestSenderUseTLS(t *testing.T) {
	assert.True(t, (&Sender{Port: 465, Secure: false}).UseTLS(), "465 强制隐式 TLS")
	assert.False(t, (&Sender{Port: 587, Secure: true}).UseTLS(), "587 强制 STARTTLS")
	assert.True(t, (&Sender{Port: 2525, Secure: true}).UseTLS(), "其余端口沿用 Secure 标志")
	assert.False(t, (&Sender{Port: 2525, Secure: false}).UseTLS())
}

func TestSenderHasQuota(t *testing.T) {
	assert.True(t, (&Sender{SentCount: 99, DailyLimit: 100}).HasQuota())
	assert.False(t, (&Sender{SentCount: 100, DailyLimit: 100}).HasQuota())
}

func TestTemplateRender(t *testing.T) {
	tpl := Template{
		Subject:  "Hello {{Ten}}",
		HTMLBody: "<p>Hi {{Ten}}, welcome {{Ten}}!</p>",
	}
	assert.Equal(t, "Hello Alice", tpl.RenderSubject("Alice"))
	assert.Equal(t, "<p>Hi Alice, welcome Alice!</p>", tpl.RenderBody("Alice"))

	// 没有姓名时占位符被替换为空串
	assert.Equal(t, "Hello ", tpl.RenderSubject(""))
}
