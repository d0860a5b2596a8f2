package push

import (
	"context"
	"testing"

	"campus-hub/backend/config"
)

var testCfg = &config.PushConfig{
	AndroidIcon:  "ic_notification",
	AndroidColor: "#1E88E5",
	WebIcon:      "/icon.png",
}

func TestNew_NotConfigured(t *testing.T) {
	c, err := New(context.Background(), &config.PushConfig{})
	if err != nil {
		t.Fatalf("未配置时不应报错: %v", err)
	}
	if c != nil {
		t.Error("未配置凭据时应返回 nil 客户端")
	}
}

func TestBuildMessage_IOS(t *testing.T) {
	msg := BuildMessage(&Message{Token: "tok", Platform: PlatformIOS, Title: "t", Body: "b", Badge: 3}, testCfg)

	if msg.APNS == nil || msg.APNS.Payload == nil || msg.APNS.Payload.Aps == nil {
		t.Fatal("iOS 消息应包含 APNS 配置")
	}
	if *msg.APNS.Payload.Aps.Badge != 3 {
		t.Errorf("期望角标=3，实际=%d", *msg.APNS.Payload.Aps.Badge)
	}
	if msg.APNS.Payload.Aps.Sound != "default" {
		t.Errorf("期望提示音=default，实际=%s", msg.APNS.Payload.Aps.Sound)
	}
	if msg.Android != nil || msg.Webpush != nil {
		t.Error("iOS 消息不应包含 Android / Web 配置")
	}
}

func TestBuildMessage_Android(t *testing.T) {
	msg := BuildMessage(&Message{Token: "tok", Platform: PlatformAndroid, Title: "t", Body: "b", ClickAction: "/topics/1"}, testCfg)

	if msg.Android == nil || msg.Android.Notification == nil {
		t.Fatal("Android 消息应包含 Android 配置")
	}
	if msg.Android.Notification.Icon != "ic_notification" || msg.Android.Notification.Color != "#1E88E5" {
		t.Error("Android 图标或颜色不正确")
	}
	if msg.Android.Notification.ClickAction != "/topics/1" {
		t.Errorf("期望点击动作=/topics/1，实际=%s", msg.Android.Notification.ClickAction)
	}
	if msg.Data["click_action"] != "/topics/1" {
		t.Error("Data 中应携带 click_action")
	}
}

func TestBuildMessage_WebLinkOnlyHTTPS(t *testing.T) {
	plain := BuildMessage(&Message{Token: "tok", Platform: PlatformWeb, ClickAction: "http://insecure"}, testCfg)
	if plain.Webpush == nil {
		t.Fatal("Web 消息应包含 Webpush 配置")
	}
	if plain.Webpush.FCMOptions != nil {
		t.Error("非 HTTPS 链接不应写入 FCMOptions")
	}

	secure := BuildMessage(&Message{Token: "tok", Platform: PlatformWeb, ClickAction: "https://campus.example/topics/1"}, testCfg)
	if secure.Webpush.FCMOptions == nil || secure.Webpush.FCMOptions.Link != "https://campus.example/topics/1" {
		t.Error("HTTPS 链接应写入 FCMOptions.Link")
	}
	if secure.Webpush.Notification.Icon != "/icon.png" {
		t.Error("Web 图标不正确")
	}
}
