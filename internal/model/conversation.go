package model

import (
	"time"

	"gorm.io/gorm"
)

// Conversation 会话表 — 对应 conversations
type Conversation struct {
	ConversationID string  `gorm:"type:uuid;primaryKey"       json:"conversation_id"`
	Title          string  `gorm:"type:varchar(200);not null" json:"title"`
	IsGroup        bool    `gorm:"not null"                   json:"is_group"`
	CreatedBy      *string `gorm:"type:uuid"                  json:"created_by,omitempty"`
	BaseModel

	// 关联
	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ConversationID)
	return nil
}

// ConversationParticipant 会话成员表 — 对应 conversation_participants
// LastReadAt 为已读水位线，之后由他人发送的消息计为未读
type ConversationParticipant struct {
	ParticipantID      string     `gorm:"type:uuid;primaryKey"                                 json:"participant_id"`
	ConversationID     string     `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_user" json:"conversation_id"`
	UserID             string     `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_user" json:"user_id"`
	IsAdmin            bool       `gorm:"not null"                                             json:"is_admin"`
	IsMuted            bool       `gorm:"not null"                                             json:"is_muted"`
	NotifyOnNewMessage bool       `gorm:"not null"                                             json:"notify_on_new_message"`
	LastReadAt         *time.Time `json:"last_read_at,omitempty"`
	JoinedAt           time.Time  `gorm:"not null;autoCreateTime"                              json:"joined_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }

func (p *ConversationParticipant) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ParticipantID)
	return nil
}

// 消息类型
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)

// Message 消息表 — 对应 messages
// SenderID 为空表示系统消息
type Message struct {
	MessageID      string  `gorm:"type:uuid;primaryKey"      json:"message_id"`
	ConversationID string  `gorm:"type:uuid;not null;index"  json:"conversation_id"`
	SenderID       *string `gorm:"type:uuid"                 json:"sender_id,omitempty"`
	Content        string  `gorm:"type:text;not null"        json:"content"`
	MessageType    string  `gorm:"type:varchar(20);not null" json:"message_type"` // text | system
	BaseModel
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(*gorm.DB) error {
	ensureID(&m.MessageID)
	if m.MessageType == "" {
		m.MessageType = MessageTypeText
	}
	return nil
}
