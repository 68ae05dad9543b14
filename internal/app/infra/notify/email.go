package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
)

// 告警发件人
const senderAddress = "butler@localhost"

// EmailNotifier 邮件告警（实现 svfulfill.Notifier 接口）
// SMTP 服务器与收件人取自系统配置，未配置时静默跳过
type EmailNotifier struct {
	settings rpsetting.SettingRepository
	log      logger.Logger
}

// NewEmailNotifier 创建邮件告警器
func NewEmailNotifier(settings rpsetting.SettingRepository, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{settings: settings, log: log}
}

// Notify 发送告警邮件
func (n *EmailNotifier) Notify(ctx context.Context, subject, body string) error {
	settings, err := n.settings.Get(ctx)
	if err != nil {
		return err
	}
	if settings.SMTPServer == "" || settings.NotifyEmail == "" {
		n.log.Debugf(ctx, "smtp not configured, notification skipped")
		return nil
	}

	port := settings.SMTPPort
	if port <= 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", settings.SMTPServer, port)

	msg := buildMessage(senderAddress, settings.NotifyEmail, subject, body)
	if err := smtp.SendMail(addr, nil, senderAddress, []string{settings.NotifyEmail}, msg); err != nil {
		return fmt.Errorf("send notification mail failed: %w", err)
	}
	n.log.Infof(ctx, "notification mail sent to %s", settings.NotifyEmail)
	return nil
}

// buildMessage 组装 RFC 822 邮件体
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
