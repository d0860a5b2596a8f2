package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
	"campus-hub/backend/pkg/mailer"
	"campus-hub/backend/pkg/metrics"
	"campus-hub/backend/pkg/push"
)

// EmailSender 邮件传输
type EmailSender interface {
	Send(ctx context.Context, msg *mailer.Message) error
}

// PushSender 推送传输，单 Token 粒度返回结果
type PushSender interface {
	Send(ctx context.Context, msg *push.Message) error
}

const (
	channelEmail = "email"
	channelPush  = "push"
)

// Deliverer 通知投递器
//
// 在通知记录提交后同步执行；各通道失败只记录日志，不重试、不向上传播。
// email / push 为 nil 时对应通道为空操作。
type Deliverer struct {
	repo    *repository.Repository
	email   EmailSender
	push    PushSender
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

// NewDeliverer 创建投递器
func NewDeliverer(repo *repository.Repository, email EmailSender, push PushSender, baseURL string, logger *zap.Logger) *Deliverer {
	return &Deliverer{
		repo:    repo,
		email:   email,
		push:    push,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// Deliver 按通道开关投递一条已持久化的通知，并回写 sent_by_email / sent_by_push
func (d *Deliverer) Deliver(ctx context.Context, n *model.Notification, user *model.User, t *model.NotificationType, flags ChannelFlags, data map[string]interface{}) {
	emailSent := d.deliverEmail(ctx, n, user, t, flags, data)
	pushSent := d.deliverPush(ctx, n, user, t, flags)

	if !emailSent && !pushSent {
		return
	}
	if err := d.repo.Notification.MarkDelivered(ctx, n.NotificationID, emailSent, pushSent); err != nil {
		d.logger.Error("回写投递标记失败",
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
		return
	}
	n.SentByEmail = n.SentByEmail || emailSent
	n.SentByPush = n.SentByPush || pushSent
}

// ────────────────────── Email ──────────────────────

func (d *Deliverer) deliverEmail(ctx context.Context, n *model.Notification, user *model.User, t *model.NotificationType, flags ChannelFlags, data map[string]interface{}) bool {
	if !flags.Email || d.email == nil || user.Email == "" {
		metrics.DeliveryAttempts.WithLabelValues(channelEmail, metrics.ResultSkipped).Inc()
		return false
	}

	msg := &mailer.Message{
		To:      user.Email,
		Subject: n.Title,
		Text:    n.Body,
	}

	tpl, err := d.repo.NotificationTemplate.GetByTypeID(ctx, t.NotificationTypeID)
	switch {
	case err == nil:
		if tpl.EmailSubject != "" {
			msg.Subject = Render(tpl.EmailSubject, data)
		}
		if tpl.EmailTextBody != "" {
			msg.Text = Render(tpl.EmailTextBody, data)
		}
		if tpl.EmailHTMLBody != "" {
			msg.HTML = RenderHTML(tpl.EmailHTMLBody, data)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		// 模板查询失败时退回默认渲染
		d.logger.Warn("查询邮件模板失败",
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
	}

	if err := d.email.Send(ctx, msg); err != nil {
		metrics.DeliveryAttempts.WithLabelValues(channelEmail, metrics.ResultFailed).Inc()
		d.logger.Warn("邮件投递失败",
			zap.String("notification_id", n.NotificationID),
			zap.String("channel", channelEmail),
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
		return false
	}

	metrics.DeliveryAttempts.WithLabelValues(channelEmail, metrics.ResultSent).Inc()
	return true
}

// ────────────────────── Push ──────────────────────

func (d *Deliverer) deliverPush(ctx context.Context, n *model.Notification, user *model.User, t *model.NotificationType, flags ChannelFlags) bool {
	if !flags.Push || d.push == nil {
		metrics.DeliveryAttempts.WithLabelValues(channelPush, metrics.ResultSkipped).Inc()
		return false
	}

	tokens, err := d.repo.DeviceToken.ListActiveByUser(ctx, user.UserID)
	if err != nil {
		d.logger.Warn("查询推送设备失败",
			zap.String("notification_id", n.NotificationID),
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
		return false
	}
	if len(tokens) == 0 {
		return false
	}

	badge := 0
	if hasPlatform(tokens, model.PlatformIOS) {
		if c, err := d.repo.Notification.CountUnread(ctx, user.UserID); err == nil {
			badge = int(c)
		}
	}

	data := map[string]string{
		"notification_id": n.NotificationID,
		"type":            t.Code,
	}

	sent := false
	for i := range tokens {
		tok := &tokens[i]
		msg := &push.Message{
			Token:       tok.Token,
			Platform:    tok.Platform,
			Title:       n.Title,
			Body:        n.Body,
			ClickAction: d.absoluteURL(n.ActionURL),
			Badge:       badge,
			Data:        data,
		}

		if err := d.push.Send(ctx, msg); err != nil {
			metrics.DeliveryAttempts.WithLabelValues(channelPush, metrics.ResultFailed).Inc()
			d.logger.Warn("推送投递失败",
				zap.String("notification_id", n.NotificationID),
				zap.String("channel", channelPush),
				zap.String("user_id", user.UserID),
				zap.String("platform", tok.Platform),
				zap.Error(err),
			)
			if errors.Is(err, push.ErrUnregistered) {
				if err := d.repo.DeviceToken.DeactivateByID(ctx, tok.DeviceTokenID); err != nil {
					d.logger.Warn("停用失效设备失败", zap.String("device_token_id", tok.DeviceTokenID), zap.Error(err))
				}
			}
			continue
		}

		metrics.DeliveryAttempts.WithLabelValues(channelPush, metrics.ResultSent).Inc()
		sent = true
		if err := d.repo.DeviceToken.TouchLastUsed(ctx, tok.DeviceTokenID, d.now()); err != nil {
			d.logger.Warn("更新设备最近使用时间失败", zap.String("device_token_id", tok.DeviceTokenID), zap.Error(err))
		}
	}

	return sent
}

func (d *Deliverer) absoluteURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return d.baseURL + path
}

func hasPlatform(tokens []model.DeviceToken, platform string) bool {
	for _, t := range tokens {
		if t.Platform == platform {
			return true
		}
	}
	return false
}
