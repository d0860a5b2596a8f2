package dto

// ── 通知类型管理 DTO ──

// CreateNotificationTypeRequest 创建通知类型请求
type CreateNotificationTypeRequest struct {
	Code                  string `json:"code"           binding:"required,max=100"`
	Name                  string `json:"name"           binding:"required,max=200"`
	Description           string `json:"description"    binding:"omitempty,max=1000"`
	TitleTemplate         string `json:"title_template" binding:"required,max=255"`
	BodyTemplate          string `json:"body_template"  binding:"required"`
	HasEmail              bool   `json:"has_email"`
	HasInApp              bool   `json:"has_in_app"`
	HasPush               bool   `json:"has_push"`
	DefaultUserPreference bool   `json:"default_user_preference"`
	IsActive              *bool  `json:"is_active"`
}

// UpdateNotificationTypeRequest 更新通知类型请求
type UpdateNotificationTypeRequest struct {
	Name                  *string               `json:"name"           binding:"omitempty,max=200"`
	Description           *string               `json:"description"    binding:"omitempty,max=1000"`
	TitleTemplate         *string               `json:"title_template" binding:"omitempty,max=255"`
	BodyTemplate          *string               `json:"body_template"`
	HasEmail              *bool                 `json:"has_email"`
	HasInApp              *bool                 `json:"has_in_app"`
	HasPush               *bool                 `json:"has_push"`
	DefaultUserPreference *bool                 `json:"default_user_preference"`
	IsActive              *bool                 `json:"is_active"`
	EmailTemplate         *EmailTemplateRequest `json:"email_template"`
}

// EmailTemplateRequest 邮件模板覆盖
type EmailTemplateRequest struct {
	Subject  string `json:"subject"   binding:"max=255"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

// NotificationTypeResponse 通知类型响应
type NotificationTypeResponse struct {
	ID                    string `json:"id"`
	Code                  string `json:"code"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	TitleTemplate         string `json:"title_template"`
	BodyTemplate          string `json:"body_template"`
	HasEmail              bool   `json:"has_email"`
	HasInApp              bool   `json:"has_in_app"`
	HasPush               bool   `json:"has_push"`
	DefaultUserPreference bool   `json:"default_user_preference"`
	IsActive              bool   `json:"is_active"`
}
