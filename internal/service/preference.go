package service

import "campus-hub/backend/internal/model"

// ChannelFlags 单次投递的通道开关
type ChannelFlags struct {
	Email bool
	InApp bool
	Push  bool
}

// ResolvePreference 计算用户对某通知类型的有效通道
// pref 为 nil 时三个通道均取类型的 default_user_preference；结果再与类型支持的通道取交集
func ResolvePreference(pref *model.UserNotificationPreference, t *model.NotificationType) ChannelFlags {
	var f ChannelFlags
	if pref == nil {
		d := t.DefaultUserPreference
		f = ChannelFlags{Email: d, InApp: d, Push: d}
	} else {
		f = ChannelFlags{Email: pref.EmailEnabled, InApp: pref.InAppEnabled, Push: pref.PushEnabled}
	}

	f.Email = f.Email && t.HasEmail
	f.InApp = f.InApp && t.HasInApp
	f.Push = f.Push && t.HasPush
	return f
}

// defaultPreference 按类型默认值构造偏好行
func defaultPreference(userID string, t *model.NotificationType) model.UserNotificationPreference {
	d := t.DefaultUserPreference
	return model.UserNotificationPreference{
		UserID:             userID,
		NotificationTypeID: t.NotificationTypeID,
		EmailEnabled:       d,
		InAppEnabled:       d,
		PushEnabled:        d,
	}
}
