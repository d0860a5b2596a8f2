package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-hub/backend/internal/model"
	"campus-hub/backend/internal/repository"
	"campus-hub/backend/pkg/metrics"
)

// 无发送者 / 发送者已删除时的展示名
const (
	actorSystem  = "System"
	actorDeleted = "Deleted user"
)

// FanoutCoordinator 新消息 / 新帖子的通知扇出
//
// 由业务用例在写事务提交后显式调用。收件人 = 开启通知的成员或订阅者 − 操作者，去重；
// 会话中已静音的成员不接收通知。单个收件人失败（含 panic）只记录日志，不影响其余收件人。
type FanoutCoordinator struct {
	repo   *repository.Repository
	sink   NotificationSink
	logger *zap.Logger
}

// NewFanoutCoordinator 创建扇出协调器；sink 为 nil 时使用 NopSink
func NewFanoutCoordinator(repo *repository.Repository, sink NotificationSink, logger *zap.Logger) *FanoutCoordinator {
	if sink == nil {
		sink = NopSink{}
	}
	return &FanoutCoordinator{repo: repo, sink: sink, logger: logger}
}

// MessageCreated 会话新消息扇出，返回成功交付给 sink 的收件人数
func (f *FanoutCoordinator) MessageCreated(ctx context.Context, conv *model.Conversation, msg *model.Message) int {
	actorID := ""
	if msg.SenderID != nil {
		actorID = *msg.SenderID
	}

	participants, err := f.repo.Conversation.ListNotifiableParticipants(ctx, conv.ConversationID, actorID)
	if err != nil {
		f.logger.Error("查询会话通知成员失败", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
		return 0
	}

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.IsMuted || !p.NotifyOnNewMessage {
			continue
		}
		ids = append(ids, p.UserID)
	}
	recipients := dedupe(ids, actorID)
	metrics.FanoutRecipients.WithLabelValues("message").Observe(float64(len(recipients)))
	if len(recipients) == 0 {
		return 0
	}

	data := map[string]interface{}{
		"conversation_id":    conv.ConversationID,
		"conversation_title": conv.Title,
		"message_id":         msg.MessageID,
		"content_preview":    Preview(msg.Content),
		"actor_name":         f.actorName(ctx, msg.SenderID, actorSystem),
	}

	return f.notifyAll(ctx, recipients, func(userID string) *CreateNotificationInput {
		return &CreateNotificationInput{
			UserID:     userID,
			TypeCode:   model.TypeNewMessage,
			Context:    data,
			Related:    model.MessageRef(msg.MessageID),
			ActionURL:  fmt.Sprintf("/conversations/%s", conv.ConversationID),
			ActionText: "View message",
			SendNow:    true,
		}
	})
}

// PostCreated 主题新回复扇出；首帖不扇出
func (f *FanoutCoordinator) PostCreated(ctx context.Context, topic *model.Topic, post *model.Post) int {
	if post.IsFirst {
		return 0
	}

	actorID := ""
	if post.AuthorID != nil {
		actorID = *post.AuthorID
	}

	subs, err := f.repo.Subscription.ListNotifiable(ctx, topic.TopicID, actorID)
	if err != nil {
		f.logger.Error("查询主题订阅者失败", zap.String("topic_id", topic.TopicID), zap.Error(err))
		return 0
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		if !s.NotifyOnNewPost {
			continue
		}
		ids = append(ids, s.UserID)
	}
	recipients := dedupe(ids, actorID)
	metrics.FanoutRecipients.WithLabelValues("post").Observe(float64(len(recipients)))
	if len(recipients) == 0 {
		return 0
	}

	data := map[string]interface{}{
		"topic_id":        topic.TopicID,
		"topic_title":     topic.Title,
		"post_id":         post.PostID,
		"content_preview": Preview(post.Content),
		"actor_name":      f.actorName(ctx, post.AuthorID, actorDeleted),
	}

	return f.notifyAll(ctx, recipients, func(userID string) *CreateNotificationInput {
		return &CreateNotificationInput{
			UserID:     userID,
			TypeCode:   model.TypeForumNewPost,
			Context:    data,
			Related:    model.PostRef(post.PostID),
			ActionURL:  fmt.Sprintf("/topics/%s#post-%s", topic.TopicID, post.PostID),
			ActionText: "View reply",
			SendNow:    true,
		}
	})
}

func (f *FanoutCoordinator) notifyAll(ctx context.Context, recipients []string, build func(userID string) *CreateNotificationInput) int {
	delivered := 0
	for _, userID := range recipients {
		if f.notifyOne(ctx, build(userID)) {
			delivered++
		}
	}
	return delivered
}

// notifyOne 隔离单个收件人的错误与 panic
func (f *FanoutCoordinator) notifyOne(ctx context.Context, in *CreateNotificationInput) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("通知收件人时发生 panic",
				zap.String("user_id", in.UserID),
				zap.String("code", in.TypeCode),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	if err := f.sink.Notify(ctx, in); err != nil {
		f.logger.Warn("通知收件人失败",
			zap.String("user_id", in.UserID),
			zap.String("code", in.TypeCode),
			zap.Error(err),
		)
		return false
	}
	return true
}

// actorName 操作者展示名；actorID 为空时返回 fallback，用户记录缺失时返回 Deleted user
func (f *FanoutCoordinator) actorName(ctx context.Context, actorID *string, fallback string) string {
	if actorID == nil || *actorID == "" {
		return fallback
	}
	user, err := f.repo.User.GetByID(ctx, *actorID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			f.logger.Warn("查询操作者失败", zap.String("user_id", *actorID), zap.Error(err))
		}
		return actorDeleted
	}
	return user.DisplayName()
}
