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

// ── 论坛模块业务错误 ──

var (
	ErrTopicNotFound        = errors.New("主题不存在")
	ErrTopicLocked          = errors.New("主题已锁定，无法回复")
	ErrSubscriptionNotFound = errors.New("未订阅该主题")
)

// ForumService 论坛业务接口
type ForumService interface {
	// CreateTopic 创建主题及首帖，创建者自动订阅；首帖不触发通知
	CreateTopic(ctx context.Context, authorID string, req *dto.CreateTopicRequest) (*dto.TopicResponse, error)
	// CreatePost 回复主题并通知订阅者
	CreatePost(ctx context.Context, topicID, authorID string, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	Subscribe(ctx context.Context, topicID, userID string, req *dto.SubscribeRequest) (*dto.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, topicID, userID string) error
	// MarkViewed 更新订阅的最近浏览时间
	MarkViewed(ctx context.Context, topicID, userID string) (*dto.SubscriptionResponse, error)
}

type forumService struct {
	repo   *repository.Repository
	fanout *FanoutCoordinator
	logger *zap.Logger
	now    func() time.Time
}

// NewForumService 创建 ForumService 实例
func NewForumService(repo *repository.Repository, fanout *FanoutCoordinator, logger *zap.Logger) ForumService {
	return &forumService{repo: repo, fanout: fanout, logger: logger, now: time.Now}
}

// ────────────────────── CreateTopic ──────────────────────

func (s *forumService) CreateTopic(ctx context.Context, authorID string, req *dto.CreateTopicRequest) (*dto.TopicResponse, error) {
	now := s.now()
	topic := &model.Topic{Title: req.Title, CreatedBy: &authorID}
	topic.CreatedAt = now
	post := &model.Post{AuthorID: &authorID, Content: req.Content, IsFirst: true}
	post.CreatedAt = now

	err := runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Topic.Create(ctx, topic); err != nil {
			return err
		}
		post.TopicID = topic.TopicID
		if err := txRepo.Post.Create(ctx, post); err != nil {
			return err
		}
		return txRepo.Subscription.Upsert(ctx, &model.TopicSubscription{
			TopicID:         topic.TopicID,
			UserID:          authorID,
			NotifyOnNewPost: true,
		})
	})
	if err != nil {
		s.logger.Error("创建主题失败", zap.String("author_id", authorID), zap.Error(err))
		return nil, err
	}

	s.fanout.PostCreated(ctx, topic, post)

	return &dto.TopicResponse{
		ID:        topic.TopicID,
		Title:     topic.Title,
		CreatedBy: authorID,
		FirstPost: toPostResponse(post),
		CreatedAt: topic.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ────────────────────── CreatePost ──────────────────────

func (s *forumService) CreatePost(ctx context.Context, topicID, authorID string, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	topic, err := s.getTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.IsLocked {
		return nil, ErrTopicLocked
	}

	post := &model.Post{TopicID: topicID, AuthorID: &authorID, Content: req.Content}
	post.CreatedAt = s.now()

	if err := s.repo.Post.Create(ctx, post); err != nil {
		s.logger.Error("创建帖子失败", zap.String("topic_id", topicID), zap.Error(err))
		return nil, err
	}

	notified := s.fanout.PostCreated(ctx, topic, post)
	s.logger.Debug("帖子通知扇出完成", zap.String("post_id", post.PostID), zap.Int("notified", notified))

	return toPostResponse(post), nil
}

// ────────────────────── 订阅 ──────────────────────

func (s *forumService) Subscribe(ctx context.Context, topicID, userID string, req *dto.SubscribeRequest) (*dto.SubscriptionResponse, error) {
	if _, err := s.getTopic(ctx, topicID); err != nil {
		return nil, err
	}

	notify := true
	if req != nil && req.NotifyOnNewPost != nil {
		notify = *req.NotifyOnNewPost
	}

	sub := &model.TopicSubscription{TopicID: topicID, UserID: userID, NotifyOnNewPost: notify}
	if err := s.repo.Subscription.Upsert(ctx, sub); err != nil {
		s.logger.Error("订阅主题失败", zap.String("topic_id", topicID), zap.Error(err))
		return nil, err
	}

	return toSubscriptionResponse(sub), nil
}

func (s *forumService) Unsubscribe(ctx context.Context, topicID, userID string) error {
	affected, err := s.repo.Subscription.Delete(ctx, topicID, userID)
	if err != nil {
		s.logger.Error("取消订阅失败", zap.String("topic_id", topicID), zap.Error(err))
		return err
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *forumService) MarkViewed(ctx context.Context, topicID, userID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.repo.Subscription.Get(ctx, topicID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		s.logger.Error("查询订阅失败", zap.String("topic_id", topicID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	sub.LastViewedAt = &now
	if err := s.repo.Subscription.Update(ctx, sub); err != nil {
		s.logger.Error("更新浏览时间失败", zap.String("topic_id", topicID), zap.Error(err))
		return nil, err
	}

	return toSubscriptionResponse(sub), nil
}

// ── 辅助函数 ──

func (s *forumService) getTopic(ctx context.Context, id string) (*model.Topic, error) {
	topic, err := s.repo.Topic.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		s.logger.Error("查询主题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return topic, nil
}

func toPostResponse(p *model.Post) *dto.PostResponse {
	resp := &dto.PostResponse{
		ID:        p.PostID,
		TopicID:   p.TopicID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if p.AuthorID != nil {
		resp.AuthorID = *p.AuthorID
	}
	return resp
}

func toSubscriptionResponse(sub *model.TopicSubscription) *dto.SubscriptionResponse {
	resp := &dto.SubscriptionResponse{
		TopicID:         sub.TopicID,
		NotifyOnNewPost: sub.NotifyOnNewPost,
	}
	if sub.LastViewedAt != nil {
		resp.LastViewedAt = sub.LastViewedAt.Format(time.RFC3339)
	}
	return resp
}
