package domain

import (
	"errors"
	"net/mail"
	"strings"
)

// 验证相关的错误定义
var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrEmailTooLong = errors.New("email address too long")
	ErrInvalidPort  = errors.New("invalid smtp port")
	ErrEmptySubject = errors.New("template subject must not be empty")
	ErrEmptyBody    = errors.New("template body must not be empty")
)

// RFC 5322 邮箱地址最大长度
const MaxEmailLength = 254

// ValidateEmail 校验邮箱地址格式
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLength {
		if email == "" {
			return ErrInvalidEmail
		}
		return ErrEmailTooLong
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateSender 校验发信账号的必填字段
func ValidateSender(s *Sender) error {
	if err := ValidateEmail(s.Email); err != nil {
		return err
	}
	if s.Port <= 0 || s.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// ValidateTemplate 校验模板的必填字段
func ValidateTemplate(t *Template) error {
	if strings.TrimSpace(t.Subject) == "" {
		return ErrEmptySubject
	}
	if strings.TrimSpace(t.HTMLBody) == "" {
		return ErrEmptyBody
	}
	return nil
}
