package push

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"campus-hub/backend/config"
)

// 设备平台
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// Message 单设备推送内容
type Message struct {
	Token       string
	Platform    string
	Title       string
	Body        string
	ClickAction string
	Badge       int
	Data        map[string]string
}

// Client Firebase Cloud Messaging 推送客户端
type Client struct {
	messaging *messaging.Client
	cfg       config.PushConfig
}

// New 初始化 FCM 客户端；未配置凭据文件时返回 (nil, nil)，调用方按空操作处理
func New(ctx context.Context, cfg *config.PushConfig) (*Client, error) {
	if cfg.CredentialsFile == "" {
		return nil, nil
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("初始化 Firebase 应用失败: %w", err)
	}

	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取 FCM 客户端失败: %w", err)
	}

	return &Client{messaging: mc, cfg: *cfg}, nil
}

// ErrUnregistered 设备 Token 已被 FCM 判定为失效，调用方应停用该 Token
var ErrUnregistered = errors.New("设备 Token 已失效")

// Send 向单个设备发送推送
func (c *Client) Send(ctx context.Context, m *Message) error {
	if _, err := c.messaging.Send(ctx, BuildMessage(m, &c.cfg)); err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("%w: %v", ErrUnregistered, err)
		}
		return fmt.Errorf("FCM 推送失败: %w", err)
	}
	return nil
}

// BuildMessage 按平台构造 FCM 消息
// iOS 携带角标与提示音；Android / Web 携带图标、颜色与点击动作
func BuildMessage(m *Message, cfg *config.PushConfig) *messaging.Message {
	data := make(map[string]string, len(m.Data)+1)
	for k, v := range m.Data {
		data[k] = v
	}
	if m.ClickAction != "" {
		data["click_action"] = m.ClickAction
	}

	msg := &messaging.Message{
		Token: m.Token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: m.Title,
			Body:  m.Body,
		},
	}

	switch m.Platform {
	case PlatformIOS:
		badge := m.Badge
		msg.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Badge: &badge,
					Sound: "default",
				},
			},
		}
	case PlatformAndroid:
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Icon:        cfg.AndroidIcon,
				Color:       cfg.AndroidColor,
				ClickAction: m.ClickAction,
			},
		}
	case PlatformWeb:
		msg.Webpush = &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: m.Title,
				Body:  m.Body,
				Icon:  cfg.WebIcon,
			},
		}
		// FCM 仅接受 HTTPS 链接
		if strings.HasPrefix(m.ClickAction, "https://") {
			msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: m.ClickAction}
		}
	}

	return msg
}
