package domain

// OutboundMail 一封待投递的出站邮件
//
// 主题和正文已完成占位符替换，投递层只负责编码和传输。
type OutboundMail struct {
	FromName string // 发件人显示名称
	To       string // 收件人地址
	ToName   string // 收件人姓名，可为空
	Subject  string // 渲染后的主题
	HTMLBody string // 渲染后的 HTML 正文
}
