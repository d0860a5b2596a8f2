package dto

// ── 通知偏好 DTO ──

// PreferenceItem 单个通知类型的有效偏好
type PreferenceItem struct {
	NotificationTypeID string `json:"notification_type_id"`
	Code               string `json:"code"`
	Name               string `json:"name"`
	HasEmail           bool   `json:"has_email"`
	HasInApp           bool   `json:"has_in_app"`
	HasPush            bool   `json:"has_push"`
	EmailEnabled       bool   `json:"email_enabled"`
	InAppEnabled       bool   `json:"in_app_enabled"`
	PushEnabled        bool   `json:"push_enabled"`
}

// PreferenceUpdateItem 单个类型的偏好提交，未提交的通道回落到类型默认值
type PreferenceUpdateItem struct {
	NotificationTypeID string `json:"notification_type_id" binding:"required,uuid"`
	EmailEnabled       *bool  `json:"email_enabled"`
	InAppEnabled       *bool  `json:"in_app_enabled"`
	PushEnabled        *bool  `json:"push_enabled"`
}

// BulkUpdatePreferencesRequest 批量更新偏好请求
type BulkUpdatePreferencesRequest struct {
	Items []PreferenceUpdateItem `json:"items" binding:"dive"`
}
