package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-hub/backend/internal/model"
)

// PreferenceRepository 用户通知偏好数据访问接口
type PreferenceRepository interface {
	Get(ctx context.Context, userID, typeID string) (*model.UserNotificationPreference, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserNotificationPreference, error)
	// Upsert 按 (user_id, notification_type_id) 插入或覆盖三个通道开关
	Upsert(ctx context.Context, pref *model.UserNotificationPreference) error
	// BatchCreate 批量插入，已存在的 (user, type) 跳过
	BatchCreate(ctx context.Context, prefs []model.UserNotificationPreference) error
	// ListUserIDsMissing 列出尚无该类型偏好行的用户
	ListUserIDsMissing(ctx context.Context, typeID string) ([]string, error)
}

type preferenceRepo struct {
	db *gorm.DB
}

// NewPreferenceRepo 创建 PreferenceRepository 实例
func NewPreferenceRepo(db *gorm.DB) PreferenceRepository {
	return &preferenceRepo{db: db}
}

func (r *preferenceRepo) Get(ctx context.Context, userID, typeID string) (*model.UserNotificationPreference, error) {
	var pref model.UserNotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND notification_type_id = ?", userID, typeID).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepo) ListByUser(ctx context.Context, userID string) ([]model.UserNotificationPreference, error) {
	var prefs []model.UserNotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&prefs).Error
	return prefs, err
}

func (r *preferenceRepo) Upsert(ctx context.Context, pref *model.UserNotificationPreference) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "notification_type_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email_enabled", "in_app_enabled", "push_enabled", "updated_at"}),
	}).Create(pref).Error
}

func (r *preferenceRepo) BatchCreate(ctx context.Context, prefs []model.UserNotificationPreference) error {
	if len(prefs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(prefs, 200).Error
}

func (r *preferenceRepo) ListUserIDsMissing(ctx context.Context, typeID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("NOT EXISTS (?)",
			r.db.Model(&model.UserNotificationPreference{}).
				Select("1").
				Where("user_notification_preferences.user_id = users.user_id AND user_notification_preferences.notification_type_id = ?", typeID),
		).
		Pluck("user_id", &ids).Error
	return ids, err
}
