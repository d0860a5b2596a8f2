package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"campus-hub/backend/config"
)

// Message 待发送邮件
// HTML 为空时仅发送纯文本
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer 基于 SMTP 的同步邮件发送器
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New 根据配置创建 Mailer；未配置 SMTP 主机时返回 nil，调用方按空操作处理
func New(cfg *config.MailConfig) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send 同步发送一封邮件，每次调用独立建立 SMTP 连接
func (m *Mailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("SMTP 发送失败: %w", err)
	}
	return nil
}

func (m *Mailer) build(msg *Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	return gm
}
