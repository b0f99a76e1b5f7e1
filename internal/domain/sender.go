package domain

import "time"

// 常用 SMTP 提交端口，用于根据端口推断加密方式
const (
	PortSMTPS    = 465 // 隐式 TLS
	PortStartTLS = 587 // STARTTLS
)

// Sender 发信账号（带每日配额的出站身份）
type Sender struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	AppPassword string    `json:"appPassword" gorm:"type:varchar(255);not null"`
	Host        string    `json:"host" gorm:"type:varchar(255);not null;default:'smtp.yandex.com'"`
	Port        int       `json:"port" gorm:"not null;default:465"`
	Secure      bool      `json:"secure" gorm:"default:true"`
	SentCount   int       `json:"sentCount" gorm:"default:0"`
	DailyLimit  int       `json:"dailyLimit" gorm:"default:100"`
	BatchSize   int       `json:"batchSize" gorm:"default:10"` // 旧版批量发送参数，逐收件人调度后仅作兼容保留
	IsActive    bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasQuota 判断账号当日配额是否还有剩余
func (s *Sender) HasQuota() bool {
	return s.SentCount < s.DailyLimit
}

// UseTLS 根据端口决定实际加密方式
//
// 587 端口使用 STARTTLS（明文连接后升级），465 端口使用隐式 TLS，
// 其余端口沿用账号配置的 Secure 标志。
func (s *Sender) UseTLS() bool {
	switch s.Port {
	case PortStartTLS:
		return false
	case PortSMTPS:
		return true
	default:
		return s.Secure
	}
}
