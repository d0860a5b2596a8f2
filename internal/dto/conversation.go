package dto

// ── 私信模块 DTO ──

// CreateConversationRequest 创建会话请求
type CreateConversationRequest struct {
	Title          string   `json:"title"           binding:"omitempty,max=200"`
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1,max=100,dive,uuid"`
}

// ConversationResponse 会话响应
type ConversationResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	IsGroup      bool                  `json:"is_group"`
	Participants []ParticipantResponse `json:"participants"`
	CreatedAt    string                `json:"created_at"`
}

// ParticipantResponse 会话成员响应
type ParticipantResponse struct {
	UserID             string `json:"user_id"`
	IsAdmin            bool   `json:"is_admin"`
	IsMuted            bool   `json:"is_muted"`
	NotifyOnNewMessage bool   `json:"notify_on_new_message"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id,omitempty"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	CreatedAt      string `json:"created_at"`
}

// ParticipantSettingsRequest 成员通知设置
type ParticipantSettingsRequest struct {
	IsMuted            *bool `json:"is_muted"`
	NotifyOnNewMessage *bool `json:"notify_on_new_message"`
}
