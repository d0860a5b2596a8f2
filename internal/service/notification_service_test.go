package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/model"
	pkgerrors "campus-hub/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupNotificationService() (*testEnv, *notificationService) {
	env := newTestEnv()
	env.seedBuiltinTypes()
	env.addUser("u-bob", "Bob")
	return env, env.notificationService()
}

func messageInput(userID string) *CreateNotificationInput {
	return &CreateNotificationInput{
		UserID:   userID,
		TypeCode: model.TypeNewMessage,
		Context: map[string]interface{}{
			"actor_name":      "Alice",
			"content_preview": "hello",
		},
		Related:    model.MessageRef("msg-1"),
		ActionURL:  "/conversations/c-1",
		ActionText: "View message",
	}
}

func createUnread(t *testing.T, svc *notificationService, userID string) *model.Notification {
	t.Helper()
	n, err := svc.CreateNotification(context.Background(), messageInput(userID))
	if err != nil {
		t.Fatalf("CreateNotification 应成功: %v", err)
	}
	return n
}

// ── CreateNotification 测试 ──

func TestNotificationService_Create_RendersAndPersists(t *testing.T) {
	env, svc := setupNotificationService()

	n := createUnread(t, svc, "u-bob")

	if n.Title != "New message from Alice" {
		t.Errorf("标题渲染不符: %q", n.Title)
	}
	if n.Body != "hello" {
		t.Errorf("正文渲染不符: %q", n.Body)
	}
	if n.Status != model.StatusUnread {
		t.Errorf("期望 unread，实际=%s", n.Status)
	}
	if ref := n.Related(); ref.Kind != model.RelatedMessage || ref.ID != "msg-1" {
		t.Errorf("关联对象不符: %+v", ref)
	}
	if _, ok := env.notifications.items[n.NotificationID]; !ok {
		t.Error("通知应被持久化")
	}
	// 上下文原样保存，不包含注入的 user
	if _, ok := n.Context["user"]; ok {
		t.Error("持久化的 context 不应包含渲染时注入的 user")
	}
	if n.SentByEmail || n.SentByPush {
		t.Error("SendNow=false 时不应投递")
	}
}

func TestNotificationService_Create_InjectsUser(t *testing.T) {
	env, svc := setupNotificationService()
	env.addType(model.NotificationType{
		Code:          "welcome",
		TitleTemplate: "Welcome {{ user.name }}",
		BodyTemplate:  "Your address is {{ user.email }}",
		HasInApp:      true,
		IsActive:      true,
	})

	n, err := svc.CreateNotification(context.Background(), &CreateNotificationInput{UserID: "u-bob", TypeCode: "welcome"})
	if err != nil {
		t.Fatalf("CreateNotification 应成功: %v", err)
	}
	if n.Title != "Welcome Bob" || n.Body != "Your address is u-bob@example.com" {
		t.Errorf("user 注入渲染不符: %q / %q", n.Title, n.Body)
	}
}

func TestNotificationService_Create_UnknownType(t *testing.T) {
	env, svc := setupNotificationService()

	in := messageInput("u-bob")
	in.TypeCode = "no_such_type"
	_, err := svc.CreateNotification(context.Background(), in)
	if !errors.Is(err, ErrNotificationTypeNotFound) {
		t.Errorf("期望 ErrNotificationTypeNotFound，实际: %v", err)
	}
	if len(env.notifications.items) != 0 {
		t.Error("未知类型不应写入通知")
	}
}

func TestNotificationService_Create_InactiveType(t *testing.T) {
	env, svc := setupNotificationService()
	env.types.types[env.typeByCode(model.TypeNewMessage).NotificationTypeID].IsActive = false

	_, err := svc.CreateNotification(context.Background(), messageInput("u-bob"))
	if !errors.Is(err, ErrNotificationTypeNotFound) {
		t.Errorf("期望 ErrNotificationTypeNotFound，实际: %v", err)
	}
}

func TestNotificationService_Notify_SwallowsSkippableErrors(t *testing.T) {
	env, svc := setupNotificationService()
	inactive := env.addUser("u-gone", "Gone")
	env.users.users[inactive.UserID].IsActive = false

	unknownType := messageInput("u-bob")
	unknownType.TypeCode = "no_such_type"

	for _, in := range []*CreateNotificationInput{unknownType, messageInput("u-gone"), messageInput("u-missing")} {
		if err := svc.Notify(context.Background(), in); err != nil {
			t.Errorf("Notify 对可跳过的情况应返回 nil，实际: %v", err)
		}
	}
	if len(env.notifications.items) != 0 {
		t.Errorf("不应写入任何通知，实际=%d", len(env.notifications.items))
	}
}

func TestNotificationService_Create_SendNowUsesPreference(t *testing.T) {
	env, svc := setupNotificationService()
	typ := env.typeByCode(model.TypeNewMessage)
	env.addDevice("u-bob", "tok-1", model.PlatformAndroid)
	_ = env.prefs.Upsert(context.Background(), &model.UserNotificationPreference{
		UserID:             "u-bob",
		NotificationTypeID: typ.NotificationTypeID,
		EmailEnabled:       false,
		InAppEnabled:       true,
		PushEnabled:        true,
	})

	in := messageInput("u-bob")
	in.SendNow = true
	n, err := svc.CreateNotification(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateNotification 应成功: %v", err)
	}

	if len(env.mail.sent) != 0 {
		t.Error("邮件偏好关闭时不应发送邮件")
	}
	if !n.SentByPush || n.SentByEmail {
		t.Errorf("期望仅推送已发送，实际 email=%v push=%v", n.SentByEmail, n.SentByPush)
	}
}

func TestNotificationService_Create_DeliveryFailureStillCreates(t *testing.T) {
	env, svc := setupNotificationService()
	env.mail.err = errBoom
	env.addDevice("u-bob", "tok-1", model.PlatformWeb)
	env.push.errByToken["tok-1"] = errBoom

	in := messageInput("u-bob")
	in.SendNow = true
	n, err := svc.CreateNotification(context.Background(), in)
	if err != nil {
		t.Fatalf("投递失败不应影响创建: %v", err)
	}
	stored := env.notifications.items[n.NotificationID]
	if stored.SentByEmail || stored.SentByPush {
		t.Error("全部通道失败时投递标记应为 false")
	}
}

// ── 状态迁移测试 ──

func TestNotificationService_Transitions(t *testing.T) {
	_, svc := setupNotificationService()
	ctx := context.Background()
	n := createUnread(t, svc, "u-bob")

	resp, err := svc.MarkAsRead(ctx, "u-bob", n.NotificationID)
	if err != nil {
		t.Fatalf("MarkAsRead 应成功: %v", err)
	}
	if resp.Status != string(model.StatusRead) || resp.ReadAt == "" {
		t.Errorf("期望 read 且 read_at 已设置，实际=%+v", resp)
	}

	// 重复标记为空操作
	if _, err := svc.MarkAsRead(ctx, "u-bob", n.NotificationID); err != nil {
		t.Errorf("重复标记已读应为空操作: %v", err)
	}

	resp, err = svc.MarkAsUnread(ctx, "u-bob", n.NotificationID)
	if err != nil {
		t.Fatalf("MarkAsUnread 应成功: %v", err)
	}
	if resp.Status != string(model.StatusUnread) || resp.ReadAt != "" {
		t.Errorf("期望 unread 且 read_at 清空，实际=%+v", resp)
	}

	resp, err = svc.Archive(ctx, "u-bob", n.NotificationID)
	if err != nil {
		t.Fatalf("Archive 应成功: %v", err)
	}
	if resp.Status != string(model.StatusArchived) || resp.ArchivedAt == "" {
		t.Errorf("期望 archived 且 archived_at 已设置，实际=%+v", resp)
	}

	// archived 为终态
	if _, err := svc.MarkAsRead(ctx, "u-bob", n.NotificationID); !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Errorf("期望 ErrInvalidTransition，实际: %v", err)
	}
	if _, err := svc.MarkAsUnread(ctx, "u-bob", n.NotificationID); !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Errorf("期望 ErrInvalidTransition，实际: %v", err)
	}
}

func TestNotificationService_Transition_OtherUsersNotification(t *testing.T) {
	env, svc := setupNotificationService()
	env.addUser("u-eve", "Eve")
	n := createUnread(t, svc, "u-bob")

	_, err := svc.MarkAsRead(context.Background(), "u-eve", n.NotificationID)
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("期望 ErrNotificationNotFound，实际: %v", err)
	}
	if env.notifications.items[n.NotificationID].Status != model.StatusUnread {
		t.Error("他人操作不应改变通知状态")
	}
}

func TestNotificationService_Transition_NotFound(t *testing.T) {
	_, svc := setupNotificationService()

	_, err := svc.Archive(context.Background(), "u-bob", "nonexistent")
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("期望 ErrNotificationNotFound，实际: %v", err)
	}
}

// ── 批量操作测试 ──

func TestNotificationService_MarkAllAsRead_OnlyUnread(t *testing.T) {
	env, svc := setupNotificationService()
	ctx := context.Background()

	a := createUnread(t, svc, "u-bob")
	b := createUnread(t, svc, "u-bob")
	c := createUnread(t, svc, "u-bob")
	if _, err := svc.Archive(ctx, "u-bob", c.NotificationID); err != nil {
		t.Fatalf("Archive 应成功: %v", err)
	}

	affected, err := svc.MarkAllAsRead(ctx, "u-bob")
	if err != nil {
		t.Fatalf("MarkAllAsRead 应成功: %v", err)
	}
	if affected != 2 {
		t.Errorf("期望影响 2 条，实际=%d", affected)
	}
	for _, id := range []string{a.NotificationID, b.NotificationID} {
		if env.notifications.items[id].Status != model.StatusRead {
			t.Errorf("通知 %s 应为 read", id)
		}
	}
	if env.notifications.items[c.NotificationID].Status != model.StatusArchived {
		t.Error("已归档通知不应被 MarkAllAsRead 改动")
	}
}

func TestNotificationService_ArchiveAllRead_OnlyRead(t *testing.T) {
	env, svc := setupNotificationService()
	ctx := context.Background()

	read := createUnread(t, svc, "u-bob")
	unread := createUnread(t, svc, "u-bob")
	if _, err := svc.MarkAsRead(ctx, "u-bob", read.NotificationID); err != nil {
		t.Fatalf("MarkAsRead 应成功: %v", err)
	}

	affected, err := svc.ArchiveAllRead(ctx, "u-bob")
	if err != nil {
		t.Fatalf("ArchiveAllRead 应成功: %v", err)
	}
	if affected != 1 {
		t.Errorf("期望影响 1 条，实际=%d", affected)
	}
	if env.notifications.items[unread.NotificationID].Status != model.StatusUnread {
		t.Error("未读通知不应被归档")
	}
}

// ── List / UnreadCount 测试 ──

func TestNotificationService_List_ExcludesArchivedByDefault(t *testing.T) {
	_, svc := setupNotificationService()
	ctx := context.Background()

	createUnread(t, svc, "u-bob")
	archived := createUnread(t, svc, "u-bob")
	if _, err := svc.Archive(ctx, "u-bob", archived.NotificationID); err != nil {
		t.Fatalf("Archive 应成功: %v", err)
	}

	list, total, err := svc.List(ctx, "u-bob", &dto.NotificationListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("默认列表应排除已归档，实际 total=%d", total)
	}

	list, _, err = svc.List(ctx, "u-bob", &dto.NotificationListRequest{Status: "archived"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 1 || list[0].ID != archived.NotificationID {
		t.Errorf("按 archived 过滤结果不符: %+v", list)
	}
}

func TestNotificationService_UnreadCount_Cache(t *testing.T) {
	env, svc := setupNotificationService()
	ctx := context.Background()

	n := createUnread(t, svc, "u-bob")
	createUnread(t, svc, "u-bob")

	count, err := svc.UnreadCount(ctx, "u-bob")
	if err != nil || count != 2 {
		t.Fatalf("期望未读数=2，实际=%d err=%v", count, err)
	}
	if env.cache.counts["u-bob"] != 2 {
		t.Error("未命中时应回填缓存")
	}

	// 命中缓存时不查库
	env.cache.counts["u-bob"] = 42
	if count, _ := svc.UnreadCount(ctx, "u-bob"); count != 42 {
		t.Errorf("期望命中缓存 42，实际=%d", count)
	}

	// 状态变化后缓存失效
	if _, err := svc.MarkAsRead(ctx, "u-bob", n.NotificationID); err != nil {
		t.Fatalf("MarkAsRead 应成功: %v", err)
	}
	if count, _ := svc.UnreadCount(ctx, "u-bob"); count != 1 {
		t.Errorf("缓存失效后期望未读数=1，实际=%d", count)
	}
}

func TestNotificationService_UnreadCount_CacheErrorFallsBack(t *testing.T) {
	env, svc := setupNotificationService()
	env.cache.getErr = errBoom
	createUnread(t, svc, "u-bob")

	count, err := svc.UnreadCount(context.Background(), "u-bob")
	if err != nil {
		t.Fatalf("缓存故障时应回退查库: %v", err)
	}
	if count != 1 {
		t.Errorf("期望未读数=1，实际=%d", count)
	}
}

func TestNotificationService_UnreadCount_NilCache(t *testing.T) {
	env := newTestEnv()
	env.seedBuiltinTypes()
	env.addUser("u-bob", "Bob")
	svc := NewNotificationService(env.repo, nil, nil, env.logger)

	if _, err := svc.CreateNotification(context.Background(), messageInput("u-bob")); err != nil {
		t.Fatalf("CreateNotification 应成功: %v", err)
	}
	if count, err := svc.UnreadCount(context.Background(), "u-bob"); err != nil || count != 1 {
		t.Errorf("期望未读数=1，实际=%d err=%v", count, err)
	}
}

// ── Send 测试 ──

func TestNotificationService_Send(t *testing.T) {
	env, svc := setupNotificationService()
	env.addUser("u-carol", "Carol")
	off := env.addUser("u-off", "Off")
	env.users.users[off.UserID].IsActive = false

	resp, err := svc.Send(context.Background(), &dto.SendNotificationRequest{
		UserIDs:  []string{"u-bob", "u-carol", "u-bob", "u-off", "u-missing"},
		TypeCode: model.TypeNewMessage,
		Context:  map[string]interface{}{"actor_name": "Admin", "content_preview": "maintenance tonight"},
		SendNow:  boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Send 应成功: %v", err)
	}
	if resp.Created != 2 {
		t.Errorf("期望创建 2 条（去重后），实际=%d", resp.Created)
	}
	if len(resp.Skipped) != 2 {
		t.Errorf("期望跳过 2 个用户，实际=%v", resp.Skipped)
	}
	if len(env.mail.sent) != 0 {
		t.Error("send_now=false 时不应投递")
	}
}

func TestNotificationService_Send_UnknownType(t *testing.T) {
	_, svc := setupNotificationService()

	_, err := svc.Send(context.Background(), &dto.SendNotificationRequest{
		UserIDs:  []string{"u-bob"},
		TypeCode: "no_such_type",
	})
	if !errors.Is(err, ErrNotificationTypeNotFound) {
		t.Errorf("期望 ErrNotificationTypeNotFound，实际: %v", err)
	}
}

func TestNotificationService_Send_DefaultsToSendNow(t *testing.T) {
	env, svc := setupNotificationService()

	if _, err := svc.Send(context.Background(), &dto.SendNotificationRequest{
		UserIDs:  []string{"u-bob"},
		TypeCode: model.TypeNewMessage,
	}); err != nil {
		t.Fatalf("Send 应成功: %v", err)
	}
	if len(env.mail.sent) != 1 {
		t.Errorf("未指定 send_now 时默认立即投递，实际邮件数=%d", len(env.mail.sent))
	}
}

func TestNotificationService_MarkRead_UsesClock(t *testing.T) {
	_, svc := setupNotificationService()
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }
	n := createUnread(t, svc, "u-bob")

	resp, err := svc.MarkAsRead(context.Background(), "u-bob", n.NotificationID)
	if err != nil {
		t.Fatalf("MarkAsRead 应成功: %v", err)
	}
	if resp.ReadAt != at.Format(time.RFC3339) {
		t.Errorf("期望 read_at=%s，实际=%s", at.Format(time.RFC3339), resp.ReadAt)
	}
}
