package dto

// ── 论坛模块 DTO ──

// CreateTopicRequest 创建主题请求（含首帖）
type CreateTopicRequest struct {
	Title   string `json:"title"   binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required,min=1,max=20000"`
}

// TopicResponse 主题响应
type TopicResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedBy string        `json:"created_by,omitempty"`
	FirstPost *PostResponse `json:"first_post,omitempty"`
	CreatedAt string        `json:"created_at"`
}

// CreatePostRequest 回复请求
type CreatePostRequest struct {
	Content string `json:"content" binding:"required,min=1,max=20000"`
}

// PostResponse 帖子响应
type PostResponse struct {
	ID        string `json:"id"`
	TopicID   string `json:"topic_id"`
	AuthorID  string `json:"author_id,omitempty"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// SubscribeRequest 订阅主题请求
type SubscribeRequest struct {
	NotifyOnNewPost *bool `json:"notify_on_new_post"`
}

// SubscriptionResponse 订阅响应
type SubscriptionResponse struct {
	TopicID         string `json:"topic_id"`
	NotifyOnNewPost bool   `json:"notify_on_new_post"`
	LastViewedAt    string `json:"last_viewed_at,omitempty"`
}
