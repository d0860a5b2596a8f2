package model

import (
	"time"

	"gorm.io/gorm"
)

// Topic 论坛主题表 — 对应 topics
type Topic struct {
	TopicID   string  `gorm:"type:uuid;primaryKey"       json:"topic_id"`
	Title     string  `gorm:"type:varchar(200);not null" json:"title"`
	CreatedBy *string `gorm:"type:uuid"                  json:"created_by,omitempty"`
	IsLocked  bool    `gorm:"not null"                   json:"is_locked"`
	BaseModel
}

func (Topic) TableName() string { return "topics" }

func (t *Topic) BeforeCreate(*gorm.DB) error {
	ensureID(&t.TopicID)
	return nil
}

// Post 帖子表 — 对应 posts
// IsFirst 标记随主题一同创建的首帖
type Post struct {
	PostID   string  `gorm:"type:uuid;primaryKey"     json:"post_id"`
	TopicID  string  `gorm:"type:uuid;not null;index" json:"topic_id"`
	AuthorID *string `gorm:"type:uuid"                json:"author_id,omitempty"`
	Content  string  `gorm:"type:text;not null"       json:"content"`
	IsFirst  bool    `gorm:"not null"                 json:"is_first"`
	BaseModel
}

func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(*gorm.DB) error {
	ensureID(&p.PostID)
	return nil
}

// TopicSubscription 主题订阅表 — 对应 topic_subscriptions
type TopicSubscription struct {
	SubscriptionID  string     `gorm:"type:uuid;primaryKey"                        json:"subscription_id"`
	TopicID         string     `gorm:"type:uuid;not null;uniqueIndex:idx_topic_user_sub" json:"topic_id"`
	UserID          string     `gorm:"type:uuid;not null;uniqueIndex:idx_topic_user_sub" json:"user_id"`
	NotifyOnNewPost bool       `gorm:"not null"                                    json:"notify_on_new_post"`
	LastViewedAt    *time.Time `json:"last_viewed_at,omitempty"`
	BaseModel
}

func (TopicSubscription) TableName() string { return "topic_subscriptions" }

func (s *TopicSubscription) BeforeCreate(*gorm.DB) error {
	ensureID(&s.SubscriptionID)
	return nil
}
