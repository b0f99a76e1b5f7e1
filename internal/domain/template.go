package domain

import (
	"strings"
	"time"
)

// NamePlaceholder 模板中代表收件人姓名的占位符
const NamePlaceholder = "{{Ten}}"

// Template 邮件模板
type Template struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(255);not null"`
	Subject   string    `json:"subject" gorm:"type:varchar(500);not null"`
	HTMLBody  string    `json:"htmlBody" gorm:"type:text;not null"`
	SentCount int       `json:"sentCount" gorm:"default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RenderSubject 渲染主题，替换姓名占位符
func (t *Template) RenderSubject(recipientName string) string {
	return strings.ReplaceAll(t.Subject, NamePlaceholder, recipientName)
}

// RenderBody 渲染正文，替换姓名占位符
func (t *Template) RenderBody(recipientName string) string {
	return strings.ReplaceAll(t.HTMLBody, NamePlaceholder, recipientName)
}
