package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-hub/backend/internal/dto"
	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
)

// ── 私信模块业务错误 ──

var (
	ErrConversationNotFound = errors.New("会话不存在")
	ErrNotParticipant       = errors.New("不是该会话成员")
	ErrParticipantNotFound  = errors.New("部分成员用户不存在")
)

// MessageService 私信业务接口
type MessageService interface {
	// CreateConversation 创建会话，创建者自动成为管理员成员
	CreateConversation(ctx context.Context, creatorID string, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	// SendMessage 写入消息后向其他成员扇出通知
	SendMessage(ctx context.Context, conversationID, senderID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	ListMessages(ctx context.Context, conversationID, userID string, req *dto.PaginationRequest) ([]dto.MessageResponse, int64, error)
	// MarkRead 将已读水位线推进到当前时间
	MarkRead(ctx context.Context, conversationID, userID string) error
	UnreadCount(ctx context.Context, conversationID, userID string) (int64, error)
	UpdateSettings(ctx context.Context, conversationID, userID string, req *dto.ParticipantSettingsRequest) (*dto.ParticipantResponse, error)
}

type messageService struct {
	repo   *repository.Repository
	fanout *FanoutCoordinator
	logger *zap.Logger
	now    func() time.Time
}

// NewMessageService 创建 MessageService 实例
func NewMessageService(repo *repository.Repository, fanout *FanoutCoordinator, logger *zap.Logger) MessageService {
	return &messageService{repo: repo, fanout: fanout, logger: logger, now: time.Now}
}

// ────────────────────── CreateConversation ──────────────────────

func (s *messageService) CreateConversation(ctx context.Context, creatorID string, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	others := dedupe(req.ParticipantIDs, creatorID)
	if len(others) == 0 {
		return nil, ErrParticipantNotFound
	}

	users, err := s.repo.User.GetByIDs(ctx, others)
	if err != nil {
		s.logger.Error("查询会话成员失败", zap.Error(err))
		return nil, err
	}
	if len(users) != len(others) {
		return nil, ErrParticipantNotFound
	}

	conv := &model.Conversation{
		Title:     req.Title,
		IsGroup:   len(others) > 1,
		CreatedBy: &creatorID,
	}

	participants := make([]model.ConversationParticipant, 0, len(others)+1)
	participants = append(participants, model.ConversationParticipant{
		UserID:             creatorID,
		IsAdmin:            true,
		NotifyOnNewMessage: true,
	})
	for _, id := range others {
		participants = append(participants, model.ConversationParticipant{
			UserID:             id,
			NotifyOnNewMessage: true,
		})
	}

	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Conversation.Create(ctx, conv); err != nil {
			return err
		}
		for i := range participants {
			participants[i].ConversationID = conv.ConversationID
		}
		return txRepo.Conversation.AddParticipants(ctx, participants)
	})
	if err != nil {
		s.logger.Error("创建会话失败", zap.String("creator_id", creatorID), zap.Error(err))
		return nil, err
	}
	conv.Participants = participants

	return toConversationResponse(conv), nil
}

// ────────────────────── SendMessage ──────────────────────

func (s *messageService) SendMessage(ctx context.Context, conversationID, senderID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       &senderID,
		Content:        req.Content,
		MessageType:    model.MessageTypeText,
	}
	msg.CreatedAt = s.now()

	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Message.Create(ctx, msg); err != nil {
			return err
		}
		// 发送者视为已读至本条消息
		return txRepo.Conversation.SetLastReadAt(ctx, conversationID, senderID, msg.CreatedAt)
	})
	if err != nil {
		s.logger.Error("发送消息失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}

	notified := s.fanout.MessageCreated(ctx, conv, msg)
	s.logger.Debug("消息通知扇出完成",
		zap.String("message_id", msg.MessageID),
		zap.Int("notified", notified),
	)

	return toMessageResponse(msg), nil
}

// ────────────────────── ListMessages ──────────────────────

func (s *messageService) ListMessages(ctx context.Context, conversationID, userID string, req *dto.PaginationRequest) ([]dto.MessageResponse, int64, error) {
	if _, err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}

	list, total, err := s.repo.Message.ListByConversation(ctx, conversationID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询消息列表失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.MessageResponse, 0, len(list))
	for i := range list {
		result = append(result, *toMessageResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── 已读水位线 ──────────────────────

func (s *messageService) MarkRead(ctx context.Context, conversationID, userID string) error {
	if _, err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	if err := s.repo.Conversation.SetLastReadAt(ctx, conversationID, userID, s.now()); err != nil {
		s.logger.Error("更新已读水位线失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return err
	}
	return nil
}

func (s *messageService) UnreadCount(ctx context.Context, conversationID, userID string) (int64, error) {
	p, err := s.requireParticipant(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.Message.CountUnread(ctx, conversationID, userID, p.LastReadAt)
	if err != nil {
		s.logger.Error("统计会话未读失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

// ────────────────────── UpdateSettings ──────────────────────

func (s *messageService) UpdateSettings(ctx context.Context, conversationID, userID string, req *dto.ParticipantSettingsRequest) (*dto.ParticipantResponse, error) {
	p, err := s.requireParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	if req.IsMuted != nil {
		p.IsMuted = *req.IsMuted
	}
	if req.NotifyOnNewMessage != nil {
		p.NotifyOnNewMessage = *req.NotifyOnNewMessage
	}

	if err := s.repo.Conversation.UpdateParticipant(ctx, p); err != nil {
		s.logger.Error("更新成员设置失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}

	resp := toParticipantResponse(p)
	return &resp, nil
}

// ── 辅助函数 ──

func (s *messageService) getConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.repo.Conversation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		s.logger.Error("查询会话失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return conv, nil
}

func (s *messageService) requireParticipant(ctx context.Context, conversationID, userID string) (*model.ConversationParticipant, error) {
	p, err := s.repo.Conversation.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotParticipant
		}
		s.logger.Error("查询会话成员失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func toConversationResponse(conv *model.Conversation) *dto.ConversationResponse {
	resp := &dto.ConversationResponse{
		ID:           conv.ConversationID,
		Title:        conv.Title,
		IsGroup:      conv.IsGroup,
		Participants: make([]dto.ParticipantResponse, 0, len(conv.Participants)),
		CreatedAt:    conv.CreatedAt.Format(time.RFC3339),
	}
	for i := range conv.Participants {
		resp.Participants = append(resp.Participants, toParticipantResponse(&conv.Participants[i]))
	}
	return resp
}

func toParticipantResponse(p *model.ConversationParticipant) dto.ParticipantResponse {
	return dto.ParticipantResponse{
		UserID:             p.UserID,
		IsAdmin:            p.IsAdmin,
		IsMuted:            p.IsMuted,
		NotifyOnNewMessage: p.NotifyOnNewMessage,
	}
}

func toMessageResponse(m *model.Message) *dto.MessageResponse {
	resp := &dto.MessageResponse{
		ID:             m.MessageID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		MessageType:    m.MessageType,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
	if m.SenderID != nil {
		resp.SenderID = *m.SenderID
	}
	return resp
}
