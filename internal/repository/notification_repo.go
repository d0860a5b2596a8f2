package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-hub/backend/internal/model"
)

// NotificationStat 按通知类型聚合的投递统计
type NotificationStat struct {
	TypeCode    string
	TypeName    string
	Total       int64
	Unread      int64
	Read        int64
	Archived    int64
	SentByEmail int64
	SentByPush  int64
}

// NotificationRepository 通知记录数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	Update(ctx context.Context, n *model.Notification) error
	// ListByUser status 为空时返回未归档通知
	ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkAllRead 仅作用于 unread 行
	MarkAllRead(ctx context.Context, userID string, now time.Time) (int64, error)
	// ArchiveAllRead 仅作用于 read 行
	ArchiveAllRead(ctx context.Context, userID string, now time.Time) (int64, error)
	// MarkDelivered 置位投递标记，只写入为 true 的通道
	MarkDelivered(ctx context.Context, id string, email, push bool) error
	StatsByType(ctx context.Context, from, to *time.Time) ([]NotificationStat, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Preload("NotificationType").
		Where("notification_id = ?", id).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) Update(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).
		Model(n).
		Select("status", "read_at", "archived_at", "updated_at").
		Updates(n).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.Notification, int64, error) {
	var list []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	} else {
		db = db.Where("status <> ?", model.StatusArchived)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("NotificationType").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error

	return list, total, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND status = ?", userID, model.StatusUnread).
		Count(&count).Error
	return count, err
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND status = ?", userID, model.StatusUnread).
		Updates(map[string]interface{}{
			"status":     model.StatusRead,
			"read_at":    now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *notificationRepo) ArchiveAllRead(ctx context.Context, userID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND status = ?", userID, model.StatusRead).
		Updates(map[string]interface{}{
			"status":      model.StatusArchived,
			"archived_at": now,
			"updated_at":  now,
		})
	return result.RowsAffected, result.Error
}

func (r *notificationRepo) MarkDelivered(ctx context.Context, id string, email, push bool) error {
	updates := make(map[string]interface{}, 2)
	if email {
		updates["sent_by_email"] = true
	}
	if push {
		updates["sent_by_push"] = true
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ?", id).
		Updates(updates).Error
}

func (r *notificationRepo) StatsByType(ctx context.Context, from, to *time.Time) ([]NotificationStat, error) {
	var stats []NotificationStat

	db := r.db.WithContext(ctx).
		Table("notifications AS n").
		Select(`COALESCE(t.code, '') AS type_code,
			COALESCE(t.name, '') AS type_name,
			COUNT(*) AS total,
			SUM(CASE WHEN n.status = 'unread' THEN 1 ELSE 0 END) AS unread,
			SUM(CASE WHEN n.status = 'read' THEN 1 ELSE 0 END) AS read,
			SUM(CASE WHEN n.status = 'archived' THEN 1 ELSE 0 END) AS archived,
			SUM(CASE WHEN n.sent_by_email THEN 1 ELSE 0 END) AS sent_by_email,
			SUM(CASE WHEN n.sent_by_push THEN 1 ELSE 0 END) AS sent_by_push`).
		Joins("LEFT JOIN notification_types AS t ON t.notification_type_id = n.notification_type_id")

	if from != nil {
		db = db.Where("n.created_at >= ?", *from)
	}
	if to != nil {
		db = db.Where("n.created_at < ?", *to)
	}

	err := db.Group("t.code, t.name").Order("type_code ASC").Scan(&stats).Error
	return stats, err
}
