package dto

// ── 通知模块 DTO ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=unread read archived"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID          string                 `json:"id"`
	TypeCode    string                 `json:"type_code,omitempty"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Context     map[string]interface{} `json:"context,omitempty"`
	RelatedKind string                 `json:"related_kind,omitempty"`
	RelatedID   string                 `json:"related_id,omitempty"`
	ActionURL   string                 `json:"action_url,omitempty"`
	ActionText  string                 `json:"action_text,omitempty"`
	Status      string                 `json:"status"`
	SentByEmail bool                   `json:"sent_by_email"`
	SentByPush  bool                   `json:"sent_by_push"`
	CreatedAt   string                 `json:"created_at"`
	ReadAt      string                 `json:"read_at,omitempty"`
	ArchivedAt  string                 `json:"archived_at,omitempty"`
}

// SendNotificationRequest 管理员直接发送通知
type SendNotificationRequest struct {
	UserIDs    []string               `json:"user_ids"    binding:"required,min=1,max=500,dive,uuid"`
	TypeCode   string                 `json:"type_code"   binding:"required,max=100"`
	Context    map[string]interface{} `json:"context"`
	ActionURL  string                 `json:"action_url"  binding:"omitempty,max=500"`
	ActionText string                 `json:"action_text" binding:"omitempty,max=100"`
	SendNow    *bool                  `json:"send_now"`
}

// SendNotificationResponse 发送结果
type SendNotificationResponse struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped,omitempty"` // 未创建通知的用户（不存在或已停用）
}

// NotificationReportRequest 投递报表导出参数
type NotificationReportRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}
