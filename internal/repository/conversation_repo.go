package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-hub/backend/internal/model"
)

// ConversationRepository 会话与成员数据访问接口
type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	AddParticipants(ctx context.Context, participants []model.ConversationParticipant) error
	GetParticipant(ctx context.Context, conversationID, userID string) (*model.ConversationParticipant, error)
	UpdateParticipant(ctx context.Context, p *model.ConversationParticipant) error
	// ListNotifiableParticipants 开启新消息通知且未静音的成员，排除 excludeUserID
	ListNotifiableParticipants(ctx context.Context, conversationID, excludeUserID string) ([]model.ConversationParticipant, error)
	SetLastReadAt(ctx context.Context, conversationID, userID string, at time.Time) error
}

type conversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo 创建 ConversationRepository 实例
func NewConversationRepo(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Omit("Participants").Create(conv).Error
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("conversation_id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) AddParticipants(ctx context.Context, participants []model.ConversationParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&participants).Error
}

func (r *conversationRepo) GetParticipant(ctx context.Context, conversationID, userID string) (*model.ConversationParticipant, error) {
	var p model.ConversationParticipant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *conversationRepo) UpdateParticipant(ctx context.Context, p *model.ConversationParticipant) error {
	return r.db.WithContext(ctx).
		Model(p).
		Select("is_admin", "is_muted", "notify_on_new_message", "last_read_at").
		Updates(p).Error
}

func (r *conversationRepo) ListNotifiableParticipants(ctx context.Context, conversationID, excludeUserID string) ([]model.ConversationParticipant, error) {
	var list []model.ConversationParticipant
	db := r.db.WithContext(ctx).
		Where("conversation_id = ? AND notify_on_new_message = ? AND is_muted = ?", conversationID, true, false)
	if excludeUserID != "" {
		db = db.Where("user_id <> ?", excludeUserID)
	}
	err := db.Order("joined_at ASC").Find(&list).Error
	return list, err
}

func (r *conversationRepo) SetLastReadAt(ctx context.Context, conversationID, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", at).Error
}

// ── 消息 ──

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByConversation(ctx context.Context, conversationID string, offset, limit int) ([]model.Message, int64, error)
	// CountUnread 统计 since 之后他人发送的消息数；since 为空时统计全部
	CountUnread(ctx context.Context, conversationID, userID string, since *time.Time) (int64, error)
}

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepo 创建 MessageRepository 实例
func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string, offset, limit int) ([]model.Message, int64, error) {
	var list []model.Message
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Message{}).Where("conversation_id = ?", conversationID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *messageRepo) CountUnread(ctx context.Context, conversationID, userID string, since *time.Time) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("(sender_id IS NULL OR sender_id <> ?)", userID)
	if since != nil {
		db = db.Where("created_at > ?", *since)
	}
	err := db.Count(&count).Error
	return count, err
}
