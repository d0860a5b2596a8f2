package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-hub/backend/internal/model"
)

// TopicRepository 论坛主题数据访问接口
type TopicRepository interface {
	Create(ctx context.Context, topic *model.Topic) error
	GetByID(ctx context.Context, id string) (*model.Topic, error)
}

type topicRepo struct {
	db *gorm.DB
}

// NewTopicRepo 创建 TopicRepository 实例
func NewTopicRepo(db *gorm.DB) TopicRepository {
	return &topicRepo{db: db}
}

func (r *topicRepo) Create(ctx context.Context, topic *model.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *topicRepo) GetByID(ctx context.Context, id string) (*model.Topic, error) {
	var topic model.Topic
	if err := r.db.WithContext(ctx).Where("topic_id = ?", id).First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

// ── 帖子 ──

// PostRepository 帖子数据访问接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	ListByTopic(ctx context.Context, topicID string, offset, limit int) ([]model.Post, int64, error)
}

type postRepo struct {
	db *gorm.DB
}

// NewPostRepo 创建 PostRepository 实例
func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepo) ListByTopic(ctx context.Context, topicID string, offset, limit int) ([]model.Post, int64, error) {
	var list []model.Post
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Post{}).Where("topic_id = ?", topicID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// ── 订阅 ──

// SubscriptionRepository 主题订阅数据访问接口
type SubscriptionRepository interface {
	Get(ctx context.Context, topicID, userID string) (*model.TopicSubscription, error)
	// Upsert 按 (topic_id, user_id) 插入或更新通知开关
	Upsert(ctx context.Context, sub *model.TopicSubscription) error
	Update(ctx context.Context, sub *model.TopicSubscription) error
	Delete(ctx context.Context, topicID, userID string) (int64, error)
	// ListNotifiable 开启新帖通知的订阅，排除 excludeUserID
	ListNotifiable(ctx context.Context, topicID, excludeUserID string) ([]model.TopicSubscription, error)
}

type subscriptionRepo struct {
	db *gorm.DB
}

// NewSubscriptionRepo 创建 SubscriptionRepository 实例
func NewSubscriptionRepo(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) Get(ctx context.Context, topicID, userID string) (*model.TopicSubscription, error) {
	var sub model.TopicSubscription
	err := r.db.WithContext(ctx).
		Where("topic_id = ? AND user_id = ?", topicID, userID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, sub *model.TopicSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "topic_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"notify_on_new_post", "updated_at"}),
	}).Create(sub).Error
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *model.TopicSubscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *subscriptionRepo) Delete(ctx context.Context, topicID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("topic_id = ? AND user_id = ?", topicID, userID).
		Delete(&model.TopicSubscription{})
	return result.RowsAffected, result.Error
}

func (r *subscriptionRepo) ListNotifiable(ctx context.Context, topicID, excludeUserID string) ([]model.TopicSubscription, error) {
	var list []model.TopicSubscription
	db := r.db.WithContext(ctx).
		Where("topic_id = ? AND notify_on_new_post = ?", topicID, true)
	if excludeUserID != "" {
		db = db.Where("user_id <> ?", excludeUserID)
	}
	err := db.Order("created_at ASC").Find(&list).Error
	return list, err
}
