package service

import (
	"context"
	"errors"
	"testing"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/model"
)

func setupDeviceTokenService() (*testEnv, DeviceTokenService) {
	env := newTestEnv()
	env.addUser("u-bob", "Bob")
	return env, NewDeviceTokenService(env.repo, env.logger)
}

func TestDeviceTokenService_Register(t *testing.T) {
	env, svc := setupDeviceTokenService()

	resp, err := svc.Register(context.Background(), "u-bob", &dto.RegisterDeviceRequest{
		Token: "fcm-abc", Platform: model.PlatformIOS, DeviceName: "iPhone",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if !resp.IsActive || resp.Platform != model.PlatformIOS {
		t.Errorf("注册结果不符: %+v", resp)
	}
	if len(env.devices.tokens) != 1 {
		t.Errorf("期望 1 条设备记录，实际=%d", len(env.devices.tokens))
	}
}

func TestDeviceTokenService_Register_UpsertReactivates(t *testing.T) {
	env, svc := setupDeviceTokenService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "u-bob", &dto.RegisterDeviceRequest{Token: "fcm-abc", Platform: model.PlatformAndroid, DeviceName: "Old"}); err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if err := svc.Unregister(ctx, "u-bob", "fcm-abc"); err != nil {
		t.Fatalf("Unregister 应成功: %v", err)
	}

	resp, err := svc.Register(ctx, "u-bob", &dto.RegisterDeviceRequest{Token: "fcm-abc", Platform: model.PlatformWeb, DeviceName: "Browser"})
	if err != nil {
		t.Fatalf("重新注册应成功: %v", err)
	}
	if len(env.devices.tokens) != 1 {
		t.Errorf("同一 (用户, Token) 只应有一行，实际=%d", len(env.devices.tokens))
	}
	if !resp.IsActive || resp.Platform != model.PlatformWeb || resp.DeviceName != "Browser" {
		t.Errorf("重新注册应激活并更新平台与设备名: %+v", resp)
	}
}

func TestDeviceTokenService_Register_InvalidPlatform(t *testing.T) {
	_, svc := setupDeviceTokenService()

	_, err := svc.Register(context.Background(), "u-bob", &dto.RegisterDeviceRequest{Token: "x", Platform: "symbian"})
	if !errors.Is(err, ErrInvalidPlatform) {
		t.Errorf("期望 ErrInvalidPlatform，实际: %v", err)
	}
}

func TestDeviceTokenService_Unregister_KeepsRow(t *testing.T) {
	env, svc := setupDeviceTokenService()
	ctx := context.Background()
	d := env.addDevice("u-bob", "fcm-abc", model.PlatformIOS)

	if err := svc.Unregister(ctx, "u-bob", "fcm-abc"); err != nil {
		t.Fatalf("Unregister 应成功: %v", err)
	}
	stored, ok := env.devices.tokens[d.DeviceTokenID]
	if !ok {
		t.Fatal("注销后应保留记录")
	}
	if stored.IsActive {
		t.Error("注销后应为停用状态")
	}

	active, err := svc.ListActive(ctx, "u-bob")
	if err != nil {
		t.Fatalf("ListActive 应成功: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("停用设备不应出现在活跃列表，实际=%d", len(active))
	}
}

func TestDeviceTokenService_Unregister_NotFound(t *testing.T) {
	env, svc := setupDeviceTokenService()
	env.addDevice("u-other", "fcm-abc", model.PlatformIOS)

	// 不能注销他人的设备
	if err := svc.Unregister(context.Background(), "u-bob", "fcm-abc"); !errors.Is(err, ErrDeviceTokenNotFound) {
		t.Errorf("期望 ErrDeviceTokenNotFound，实际: %v", err)
	}
}
